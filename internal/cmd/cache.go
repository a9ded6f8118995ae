package cmd

import (
	"errors"
	"flag"
	"fmt"

	"github.com/mitchellh/cli"

	"github.com/zcatalyst/catalyst-go-sdk/cache"
	"github.com/zcatalyst/catalyst-go-sdk/nearcache"
)

type CacheCommand struct {
	*Command
}

func (c *CacheCommand) Synopsis() string {
	return "Read and write cache segments"
}

func (c *CacheCommand) Help() string {
	return `Usage: catalyst cache <subcommand> [options] [args]

  This command groups subcommands for the project's cache segments.
  Without -segment the project's default segment is used.`
}

func (c *CacheCommand) Run(args []string) int {
	return cli.RunResultHelp
}

// segmentFlags holds the flags shared by the keyed cache commands.
type segmentFlags struct {
	segment string
	near    bool
}

func (s *segmentFlags) register(f *flag.FlagSet) {
	f.StringVar(&s.segment, "segment", "", "Segment id. Empty selects the default segment.")
	f.BoolVar(&s.near, "near", false, "Read and write through the Redis near cache.")
}

// store resolves the cache.Store for the selected segment.
func (c *Command) store(seg *cache.Segment, near bool) (cache.Store, func(), error) {
	if !near {
		return seg, func() {}, nil
	}
	if c.NewRedis == nil {
		return nil, nil, errors.New("near cache is not configured")
	}
	client, cfg, err := c.NewRedis(c.ctx())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect near cache: %w", err)
	}
	return nearcache.ForSegment(seg, client, cfg).WithLogger(c.Log), func() { _ = client.Close() }, nil
}

type CacheSegmentsCommand struct {
	*Command

	flagID string
}

func (c *CacheSegmentsCommand) Synopsis() string {
	return "List cache segments"
}

func (c *CacheSegmentsCommand) Help() string {
	return `Usage: catalyst cache segments [options]

  Lists every cache segment of the project, or one segment with -id.` +
		flagHelp(c.Flags())
}

func (c *CacheSegmentsCommand) Flags() *flag.FlagSet {
	f := newFlagSet("cache segments")
	f.StringVar(&c.flagID, "id", "", "Only show the segment with this id.")
	return f
}

func (c *CacheSegmentsCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return cli.RunResultHelp
	}

	app, done, err := c.app()
	if err != nil {
		return c.fail(err)
	}
	defer done()

	if c.flagID != "" {
		details, err := app.Cache().GetSegmentDetails(c.ctx(), c.flagID)
		if err != nil {
			return c.fail(err)
		}
		return c.output(details)
	}

	segments, err := app.Cache().GetAllSegments(c.ctx())
	if err != nil {
		return c.fail(err)
	}
	return c.output(segments)
}

type CacheGetCommand struct {
	*Command

	seg       segmentFlags
	flagValue bool
}

func (c *CacheGetCommand) Synopsis() string {
	return "Fetch a cache entry"
}

func (c *CacheGetCommand) Help() string {
	return `Usage: catalyst cache get [options] KEY

  Prints the cache entry stored under KEY.` +
		flagHelp(c.Flags())
}

func (c *CacheGetCommand) Flags() *flag.FlagSet {
	f := newFlagSet("cache get")
	c.seg.register(f)
	f.BoolVar(&c.flagValue, "value", false, "Print only the cached value.")
	return f
}

func (c *CacheGetCommand) Run(args []string) int {
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return cli.RunResultHelp
	}
	if flags.NArg() != 1 {
		c.UI.Error("expected exactly one argument: KEY")
		return cli.RunResultHelp
	}
	key := flags.Arg(0)

	app, done, err := c.app()
	if err != nil {
		return c.fail(err)
	}
	defer done()

	store, release, err := c.store(app.Cache().Segment(c.seg.segment), c.seg.near)
	if err != nil {
		return c.fail(err)
	}
	defer release()

	if c.flagValue {
		value, err := store.GetValue(c.ctx(), key)
		if err != nil {
			return c.fail(err)
		}
		c.UI.Output(value)
		return 0
	}

	entry, err := store.Get(c.ctx(), key)
	if err != nil {
		return c.fail(err)
	}
	return c.output(entry)
}

type CachePutCommand struct {
	*Command

	seg        segmentFlags
	flagExpiry int
	flagUpdate bool
}

func (c *CachePutCommand) Synopsis() string {
	return "Store a cache entry"
}

func (c *CachePutCommand) Help() string {
	return `Usage: catalyst cache put [options] KEY VALUE

  Stores VALUE under KEY. With -update an existing entry is replaced.` +
		flagHelp(c.Flags())
}

func (c *CachePutCommand) Flags() *flag.FlagSet {
	f := newFlagSet("cache put")
	c.seg.register(f)
	f.IntVar(&c.flagExpiry, "expiry", 0, "Lifetime in hours. Zero keeps the backend default.")
	f.BoolVar(&c.flagUpdate, "update", false, "Replace an existing entry.")
	return f
}

func (c *CachePutCommand) Run(args []string) int {
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return cli.RunResultHelp
	}
	if flags.NArg() != 2 {
		c.UI.Error("expected exactly two arguments: KEY VALUE")
		return cli.RunResultHelp
	}
	if c.flagExpiry < 0 {
		c.UI.Error("expiry must not be negative")
		return 1
	}

	app, done, err := c.app()
	if err != nil {
		return c.fail(err)
	}
	defer done()

	store, release, err := c.store(app.Cache().Segment(c.seg.segment), c.seg.near)
	if err != nil {
		return c.fail(err)
	}
	defer release()

	write := store.Put
	if c.flagUpdate {
		write = store.Update
	}
	entry, err := write(c.ctx(), flags.Arg(0), flags.Arg(1), c.flagExpiry)
	if err != nil {
		return c.fail(err)
	}
	return c.output(entry)
}

type CacheDeleteCommand struct {
	*Command

	seg segmentFlags
}

func (c *CacheDeleteCommand) Synopsis() string {
	return "Delete a cache entry"
}

func (c *CacheDeleteCommand) Help() string {
	return `Usage: catalyst cache delete [options] KEY

  Deletes the entry stored under KEY.` +
		flagHelp(c.Flags())
}

func (c *CacheDeleteCommand) Flags() *flag.FlagSet {
	f := newFlagSet("cache delete")
	c.seg.register(f)
	return f
}

func (c *CacheDeleteCommand) Run(args []string) int {
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return cli.RunResultHelp
	}
	if flags.NArg() != 1 {
		c.UI.Error("expected exactly one argument: KEY")
		return cli.RunResultHelp
	}

	app, done, err := c.app()
	if err != nil {
		return c.fail(err)
	}
	defer done()

	store, release, err := c.store(app.Cache().Segment(c.seg.segment), c.seg.near)
	if err != nil {
		return c.fail(err)
	}
	defer release()

	deleted, err := store.Delete(c.ctx(), flags.Arg(0))
	if err != nil {
		return c.fail(err)
	}
	return c.output(map[string]bool{"deleted": deleted})
}

package mail

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/zcatalyst/catalyst-go-sdk/core"
)

// Response is the backend's record of a sent mail.
type Response struct {
	IsAsync     bool                 `json:"isAsync"`
	Project     *core.ProjectDetails `json:"project_details,omitempty"`
	FromEmail   string               `json:"from_email"`
	ToEmail     []string             `json:"to_email"`
	CC          []string             `json:"cc,omitempty"`
	BCC         []string             `json:"bcc,omitempty"`
	ReplyTo     []string             `json:"reply_to,omitempty"`
	Subject     string               `json:"subject"`
	Content     string               `json:"content,omitempty"`
	HTMLMode    bool                 `json:"html_mode"`
	DisplayName string               `json:"display_name,omitempty"`
}

// UnmarshalJSON decodes the backend record. Older backends send from_email
// as a one-element array and address lists as comma-joined strings; both
// are normalized here.
func (r *Response) UnmarshalJSON(b []byte) error {
	doc := gjson.ParseBytes(b)
	if !doc.IsObject() {
		return core.NewError(core.CodeInvalidResponse, "mail response must be an object", string(b))
	}

	*r = Response{
		IsAsync:     doc.Get("isAsync").Bool(),
		FromEmail:   scalar(doc.Get("from_email")),
		ToEmail:     list(doc.Get("to_email")),
		CC:          list(doc.Get("cc")),
		BCC:         list(doc.Get("bcc")),
		ReplyTo:     list(doc.Get("reply_to")),
		Subject:     doc.Get("subject").String(),
		Content:     doc.Get("content").String(),
		HTMLMode:    doc.Get("html_mode").Bool(),
		DisplayName: doc.Get("display_name").String(),
	}
	if p := doc.Get("project_details"); p.IsObject() {
		r.Project = &core.ProjectDetails{
			ID:          core.ID(p.Get("id").String()),
			ProjectName: p.Get("project_name").String(),
		}
	}
	return nil
}

// scalar collapses a one-element array to its element.
func scalar(v gjson.Result) string {
	if v.IsArray() {
		arr := v.Array()
		if len(arr) == 0 {
			return ""
		}
		return arr[0].String()
	}
	return v.String()
}

func list(v gjson.Result) []string {
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	var out []string
	if v.IsArray() {
		for _, item := range v.Array() {
			if s := strings.TrimSpace(item.String()); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	for _, s := range strings.Split(v.String(), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

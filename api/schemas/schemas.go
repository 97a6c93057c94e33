// api/schemas/schemas.go
package schemas

import "time"

// Cookie is a single browser cookie as persisted by the credential store and
// replayed into new browsing contexts. Expires is seconds since the Unix
// epoch, matching the wire representation used by the browser; zero means a
// session cookie.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
}

// SessionState is the authenticated session snapshot produced by the session
// manager. It is read-only after establishment; the cookie set it carries is
// the refreshed set read back from the live context, not the persisted copy.
type SessionState struct {
	Cookies         []Cookie `json:"cookies"`
	IsAuthenticated bool     `json:"is_authenticated"`
}

// RequestKind selects one of the extraction workflows.
type RequestKind string

const (
	KindSearch     RequestKind = "search"
	KindNoteDetail RequestKind = "note_detail"
	KindComments   RequestKind = "comments"
)

// ExtractionRequest describes one workflow invocation. Locator is keywords
// for KindSearch and a URL (possibly a shortened share link) otherwise.
type ExtractionRequest struct {
	Kind    RequestKind   `json:"kind"`
	Locator string        `json:"locator"`
	Limit   int           `json:"limit,omitempty"`
	Timeout time.Duration `json:"timeout"`
}

// Note is one extracted post. Immutable once produced; owned by the caller.
type Note struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags,omitempty"`
	URL      string   `json:"url"`
	Author   string   `json:"author"`
	Likes    int      `json:"likes,omitempty"`
	Collects int      `json:"collects,omitempty"`
	Comments int      `json:"comments,omitempty"`
}

// Comment is one extracted comment-thread entry, in document order.
type Comment struct {
	Author  string `json:"author"`
	Content string `json:"content"`
	Likes   int    `json:"likes"`
	Time    string `json:"time"`
}

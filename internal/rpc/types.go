package rpc

// ImportRequest is the request body for POST /import.
type ImportRequest struct {
	Sources []SourceSpec `json:"sources"`
	// Force re-parses and stores a source even if its bytes are unchanged.
	Force bool `json:"force,omitempty"`
}

// SourceSpec names an index.js location: a file, a directory holding index.js,
// or an http(s) URL.
type SourceSpec struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

type SourceResult struct {
	Name      string `json:"name"`
	Hash      string `json:"hash,omitempty"`
	Packages  int    `json:"packages"`
	Objects   int    `json:"objects"`
	Members   int    `json:"members"`
	Unchanged bool   `json:"unchanged,omitempty"`
	Problems  int    `json:"problems,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ProgressLine is a single line of NDJSON streamed from the import endpoint.
type ProgressLine struct {
	Type    string        `json:"type"` // "progress" or "result"
	Message string        `json:"message,omitempty"`
	Result  *SourceResult `json:"result,omitempty"`
}

// SearchRequest is the request body for POST /search.
type SearchRequest struct {
	Query   string   `json:"query"`
	Sources []string `json:"sources,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// SearchResponse is the response body for POST /search.
type SearchResponse struct {
	Results []DocResult `json:"results"`
}

type DocResult struct {
	URI     string `json:"uri"`
	Source  string `json:"source"`
	Package string `json:"package"`
	Object  string `json:"object"`
	Section string `json:"section,omitempty"`
	Label   string `json:"label"`
	Tail    string `json:"tail,omitempty"`
	Member  string `json:"member,omitempty"`
	Kind    string `json:"kind"`
	Link    string `json:"link"`
	URL     string `json:"url,omitempty"`
	Score   int    `json:"score"`
}

// GetRequest is the request body for POST /get. URI is either a scaladoc://
// URI or an absolute URL under the configured documentation site.
type GetRequest struct {
	URI    string `json:"uri"`
	Source string `json:"source,omitempty"`
}

// GetResponse is the response body for POST /get.
type GetResponse struct {
	Markdown string `json:"markdown"`
}

// StatusResponse is the response body for GET /status.
type StatusResponse struct {
	Sources []SourceStatus `json:"sources"`
	Cached  int            `json:"cached"`
}

type SourceStatus struct {
	Name       string `json:"name"`
	Location   string `json:"location"`
	Hash       string `json:"hash,omitempty"`
	Imported   bool   `json:"imported"`
	ImportedAt string `json:"imported_at,omitempty"`
	Packages   int    `json:"packages"`
	Objects    int    `json:"objects"`
	Members    int    `json:"members"`
}

// ClearCacheRequest is the request body for POST /clear-cache. With no
// sources the whole search cache is dropped; Purge also deletes stored data.
type ClearCacheRequest struct {
	Sources []string `json:"sources,omitempty"`
	Purge   bool     `json:"purge,omitempty"`
}

type ClearCacheResponse struct {
	Cleared int `json:"cleared"`
	Deleted int `json:"deleted"`
}

// ValidateResult reports the outcome of checking one index.js.
type ValidateResult struct {
	Location string   `json:"location"`
	Valid    bool     `json:"valid"`
	Packages int      `json:"packages"`
	Objects  int      `json:"objects"`
	Members  int      `json:"members"`
	Problems []string `json:"problems,omitempty"`
	Error    string   `json:"error,omitempty"`
}

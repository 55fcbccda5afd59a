package primegov

// Structures for the subset of the PrimeGov public API consumed here.

type apiMeeting struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	VideoURL string `json:"videoUrl"`

	Templates []*apiTemplate `json:"templates"`
}

// apiTemplate is one output document template of a meeting, e.g. the
// compiled agenda or journal.
type apiTemplate struct {
	Title string             `json:"title"`
	Files []*apiDocumentFile `json:"compiledMeetingDocumentFiles"`
}

type apiDocumentFile struct {
	ID                int64 `json:"id"`
	CompileOutputType int   `json:"compileOutputType"`
}

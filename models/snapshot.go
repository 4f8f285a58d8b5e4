package models

// Snapshot is an immutable copy of one session's state. A new snapshot is
// published after every mutation; Version increases by one each time.
type Snapshot struct {
	Version        uint64            `json:"version"`
	Messages       []Message         `json:"messages"`
	Uploading      bool              `json:"isUploading"`
	UploadProgress int               `json:"uploadProgress"`
	UploadError    string            `json:"uploadError"`
	Processing     bool              `json:"isProcessing"`
	HasFile        bool              `json:"hasFile"`
	Data           Dataset           `json:"data"`
	Chart          ChartDescriptor   `json:"chartData"`
	Mode           VisualizationMode `json:"chartType"`
	ChartTitle     string            `json:"chartTitle"`
}

// LastMessage returns the most recent message, if any
func (s Snapshot) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

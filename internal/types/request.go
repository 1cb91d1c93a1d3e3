package types

type RequestSendMessage struct {
	To       string `json:"to"`
	Message  string `json:"message"`
	Type     string `json:"type"`
	MediaURL string `json:"media_url"`
	Filename string `json:"filename"`
}

package responses

type Message struct {
	Type    string `json:"type"` // "error", "success", "info", "warning"
	Message string `json:"message"`
	Code    int    `json:"code,omitzero"` // application-level logic code
}

func ErrorMessage(msg string) Message   { return Message{Type: "error", Message: msg} }
func SuccessMessage(msg string) Message { return Message{Type: "success", Message: msg} }
func WarningMessage(msg string) Message { return Message{Type: "warning", Message: msg} }

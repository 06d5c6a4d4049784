package events

type CommandResponse struct {
	Ok     bool        `json:"ok"`
	Result interface{} `json:"result"`
}

type CommandErrorResponse struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error"`
}

// NewCommandResponse builds the envelope written back for a single command.
func NewCommandResponse(result interface{}, err error) interface{} {
	if err != nil {
		return &CommandErrorResponse{
			Ok:    false,
			Error: err.Error(),
		}
	}
	return &CommandResponse{
		Ok:     true,
		Result: result,
	}
}

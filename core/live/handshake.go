package live

type setupFrame struct {
	UserID    string       `json:"user_id"`
	SessionID string       `json:"session_id"`
	Setup     setupRequest `json:"setup"`
}

type setupRequest struct {
	RunID     uint64 `json:"run_id"`
	UserID    string `json:"user_id"`
	ProjectID string `json:"project_id"`
	SessionID string `json:"session_id"`
}

// envelope wraps the first frame sent on a connection.
type envelope struct {
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id"`
	LiveRequest any    `json:"live_request"`
}

func newSetupFrame(runID uint64, id identity) setupFrame {
	return setupFrame{
		UserID:    id.userID,
		SessionID: id.sessionID,
		Setup: setupRequest{
			RunID:     runID,
			UserID:    id.userID,
			ProjectID: id.projectID,
			SessionID: id.sessionID,
		},
	}
}

func wrap(id identity, frame any) envelope {
	return envelope{UserID: id.userID, SessionID: id.sessionID, LiveRequest: frame}
}

package ws

type SaveUserInfoPayload struct {
	Nickname string `json:"nickname"`
	UserID   string `json:"userId"`
}

type UserConnectedPayload struct {
	Nickname string `json:"nickname"`
	Color    string `json:"color"`
}

type UserDisconnectedPayload struct {
	Nickname string `json:"nickname"`
}

// MessageData is the client's "message" event body.
type MessageData struct {
	Text *string `json:"text"`
	File *string `json:"file"`
}

// UserConnectedData is the client's presence announcement body.
type UserConnectedData struct {
	Nickname string `json:"nickname"`
	UserID   string `json:"userId"`
}

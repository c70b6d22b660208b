package view

// EditSignals is the editor state of one card.
type EditSignals struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}

// Signals is the client state sent with every action of the page.
type Signals struct {
	Limit       int                    `json:"limit"`
	Text        string                 `json:"text"`
	Color       string                 `json:"color"`
	Email       string                 `json:"email"`
	Password    string                 `json:"password"`
	Confirm     string                 `json:"confirm"`
	DisplayName string                 `json:"displayName"`
	Picture     string                 `json:"picture"`
	Current     string                 `json:"current"`
	Next        string                 `json:"next"`
	NewEmail    string                 `json:"newEmail"`
	Upload      []string               `json:"upload"`
	UploadMimes []string               `json:"uploadMimes"`
	Edits       map[string]EditSignals `json:"edits"`
}

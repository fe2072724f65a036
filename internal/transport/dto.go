package transport

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RoleRequest struct {
	Role string `json:"role"`
}

type VoteRequest struct {
	Value *int `json:"value"`
}

type VoteResponse struct {
	TargetType string `json:"targetType"`
	TargetID   uint   `json:"targetId"`
	Value      int    `json:"value"`
	Upvotes    int    `json:"upvotes"`
	Downvotes  int    `json:"downvotes"`
}

type ReportRequest struct {
	Reason string `json:"reason"`
}

type HiddenRequest struct {
	Hidden *bool `json:"hidden"`
}

type CaptionRequest struct {
	ImageKey string `json:"imageKey"`
}

type CaptionResponse struct {
	ImageKey string `json:"imageKey"`
	Caption  string `json:"caption"`
}

type SpeechRequest struct {
	Text string `json:"text"`
}

type AskResponse struct {
	ImageKey string `json:"imageKey"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type UploadResponse struct {
	ImageKey string `json:"imageKey"`
}

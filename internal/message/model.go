package message

// Message is a text post authored by an account.
type Message struct {
	ID              int    `json:"messageId" db:"message_id"`
	PostedBy        int    `json:"postedBy" db:"posted_by"`
	Text            string `json:"messageText" db:"message_text"`
	TimePostedEpoch int64  `json:"timePostedEpoch" db:"time_posted_epoch"`
}

// TextUpdate is the body of a message text update.
type TextUpdate struct {
	Text string `json:"messageText"`
}

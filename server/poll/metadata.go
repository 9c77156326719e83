package poll

// Metadata stores personalized metadata of a poll.
type Metadata struct {
	PollID      string `json:"poll_id"`
	GroupID     string `json:"group_id"`
	UserID      string `json:"user_id"`
	VotedOption string `json:"voted_option"` // VotedOption is the ID of the option the user with "UserID" votes for, empty if none.
	CanDelete   bool   `json:"can_delete"`
}

// GetMetadata returns personalized metadata of a poll.
func (p *Poll) GetMetadata(userID string) *Metadata {
	m := &Metadata{
		PollID:    p.ID,
		GroupID:   p.GroupID,
		UserID:    userID,
		CanDelete: p.CreatorID != "" && p.CreatorID == userID,
	}
	if o := p.UserVote(userID); o != nil {
		m.VotedOption = o.ID
	}
	return m
}

// ToMap returns a Metadata as a map
func (m *Metadata) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"poll_id":      m.PollID,
		"group_id":     m.GroupID,
		"user_id":      m.UserID,
		"voted_option": m.VotedOption,
		"can_delete":   m.CanDelete,
	}
}

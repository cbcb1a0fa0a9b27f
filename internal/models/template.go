package models

// Template is the renderable part of a stored template. An empty Subject means none.
type Template struct {
	Subject string `json:"subject,omitempty" bson:"subject,omitempty"`
	Content string `json:"content" bson:"content"`
}

// TemplateRecord is a stored template. An empty CompanyID marks the system default.
type TemplateRecord struct {
	Type      NotificationType `json:"type"`
	Channel   ChannelType      `json:"channel"`
	CompanyID string           `json:"companyId,omitempty"`
	Template
}

// IsDefault reports whether the record is a system default.
func (r TemplateRecord) IsDefault() bool {
	return r.CompanyID == ""
}

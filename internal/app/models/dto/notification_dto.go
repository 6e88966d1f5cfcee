package dto

// MarkedReadResponse reports how many notifications were marked read
type MarkedReadResponse struct {
	Updated int64 `json:"updated"`
}

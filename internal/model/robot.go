package model

// SourceWeb marks submissions made through the human form.
const SourceWeb = "web"

// Robot is an authenticated automated submitter.
type Robot struct {
	KeyPrefix string `json:"key_prefix"`
	Env       string `json:"env"`
}

// Source names the robot in the submission log.
func (r *Robot) Source() string {
	return "robot:" + r.KeyPrefix
}

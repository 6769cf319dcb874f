package request

type StartRunRequest struct {
	URL      string `json:"url"`
	MaxPosts int    `json:"max_posts"`
}

package profile

import "time"

// Profile is a single portfolio record with its projects and work history.
type Profile struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Education string            `json:"education"`
	Skills    []string          `json:"skills"`
	Links     map[string]string `json:"links"` // label → URL (e.g. "github" → "https://github.com/...")
	Projects  []Project         `json:"projects"`
	Work      []WorkEntry       `json:"work"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Project is a showcased work item owned by exactly one Profile.
type Project struct {
	ID          string   `json:"id"`
	ProfileID   string   `json:"profileId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Links       []string `json:"links"`
}

// WorkEntry is an employment history item owned by exactly one Profile.
type WorkEntry struct {
	ID          string `json:"id"`
	ProfileID   string `json:"profileId"`
	Company     string `json:"company"`
	Role        string `json:"role"`
	Duration    string `json:"duration"` // free text, e.g. "2022 - Present"
	Description string `json:"description"`
}

// Input is the client-supplied body for creating or replacing a profile.
// Projects and work entries are always replaced wholesale.
type Input struct {
	Name      string            `json:"name" yaml:"name"`
	Email     string            `json:"email" yaml:"email"`
	Education string            `json:"education" yaml:"education"`
	Skills    []string          `json:"skills" yaml:"skills"`
	Links     map[string]string `json:"links" yaml:"links"`
	Projects  []ProjectInput    `json:"projects" yaml:"projects"`
	Work      []WorkInput       `json:"work" yaml:"work"`
}

type ProjectInput struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Links       []string `json:"links" yaml:"links"`
}

type WorkInput struct {
	Company     string `json:"company" yaml:"company"`
	Role        string `json:"role" yaml:"role"`
	Duration    string `json:"duration" yaml:"duration"`
	Description string `json:"description" yaml:"description"`
}

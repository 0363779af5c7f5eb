package model

// Theme is the UI color scheme preference
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultFolderSentinel is the folder name materialized on first configuration
const DefaultFolderSentinel = "00_Inbox"

// Settings is the persisted application configuration. An empty
// ContentRootPath means the library is not configured yet.
type Settings struct {
	ContentRootPath   string `json:"content_path"`
	Theme             Theme  `json:"theme"`
	DefaultFolderName string `json:"default_folder"`
}

// SettingsPatch is a partial settings update; nil fields are left unchanged
type SettingsPatch struct {
	ContentRootPath   *string `json:"content_path,omitempty"`
	Theme             *Theme  `json:"theme,omitempty"`
	DefaultFolderName *string `json:"default_folder,omitempty"`
}

// DefaultSettings returns the settings used before any file exists
func DefaultSettings() Settings {
	return Settings{
		ContentRootPath:   "",
		Theme:             ThemeLight,
		DefaultFolderName: DefaultFolderSentinel,
	}
}

package ssl

import (
	gitconfig "github.com/go-git/go-git/v5/config"
)

// GitEmail returns user.email from the operator's global git config, or ""
// when git is not configured.
func GitEmail() string {
	cfg, err := gitconfig.LoadConfig(gitconfig.GlobalScope)
	if err != nil || cfg == nil {
		return ""
	}
	return cfg.User.Email
}

// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

package utils

import "net/url"

// AvatarURL returns a deterministic generated avatar image URL for the
// given seed, used when registering agent identities with the chat provider.
func AvatarURL(seed string) string {
	return "https://api.dicebear.com/9.x/bottts-neutral/svg?seed=" + url.QueryEscape(seed)
}

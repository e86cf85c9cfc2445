package auth

import "slices"

// Avatars is the fixed set of profile pictures a user can pick from.
var Avatars = []string{
	"lotus", "om", "diya", "mala", "conch", "peacock", "banyan", "crescent",
}

// DefaultAvatar is assigned at registration.
const DefaultAvatar = "lotus"

func validAvatar(name string) bool {
	return slices.Contains(Avatars, name)
}

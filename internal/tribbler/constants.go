package tribbler

// Constants from spec §6.2, mirroring the reference implementation's
// defaults.
const (
	MaxUsernameLen = 15
	MinListUser    = 20
	MaxTribFetch   = 100
	MaxTribLen     = 140
	MaxFollowing   = 2000

	registryBin = ""
)

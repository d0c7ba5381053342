package tribbler

import "errors"

// Domain errors (spec §7). These are never retried and never wrap a cause;
// callers should compare with errors.Is.
var (
	ErrInvalidUsername  = errors.New("tribbler: invalid username")
	ErrUsernameTaken    = errors.New("tribbler: username taken")
	ErrUserDoesNotExist = errors.New("tribbler: user does not exist")
	ErrTribTooLong      = errors.New("tribbler: trib exceeds maximum length")
	ErrWhoWhom          = errors.New("tribbler: who and whom must differ")
	ErrAlreadyFollowing = errors.New("tribbler: already following")
	ErrNotFollowing     = errors.New("tribbler: not following")
	ErrFollowingTooMany = errors.New("tribbler: following limit reached")
	ErrMaxedSeq         = errors.New("tribbler: clock sequence saturated")
)

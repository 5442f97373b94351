package ports

// Notifier sends account lifecycle emails. Implementations may deliver
// asynchronously; callers never block on delivery and never see send errors.
type Notifier interface {
	SendWelcome(email, name string) error
	SendCancellation(email, name string) error
}

// ImageProcessor normalizes uploaded avatar images to the stored format
// (fixed square dimension, PNG encoding).
type ImageProcessor interface {
	Normalize(data []byte) ([]byte, error)
}

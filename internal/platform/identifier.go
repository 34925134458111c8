package platform

// Identifier names a streaming platform a channel can be connected to.
type Identifier string

const (
	YouTube      Identifier = "youtube"
	Facebook     Identifier = "facebook"
	FacebookPage Identifier = "facebook_page"
	Twitch       Identifier = "twitch"
	RTMP         Identifier = "rtmp"
)

func (i Identifier) String() string {
	return string(i)
}

// Valid reports whether the identifier names a known platform.
func (i Identifier) Valid() bool {
	switch i {
	case YouTube, Facebook, FacebookPage, Twitch, RTMP:
		return true
	}
	return false
}

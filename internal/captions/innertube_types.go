package captions

// Innertube wire types and client identities.

const (
	defaultBaseURL       = "https://www.youtube.com"
	playerResponseMarker = "ytInitialPlayerResponse = "

	androidClientVersion = "20.10.38"
	iosClientVersion     = "20.10.4"
)

type playerRequest struct {
	VideoID        string        `json:"videoId"`
	Context        playerContext `json:"context"`
	RacyCheckOk    bool          `json:"racyCheckOk"`
	ContentCheckOk bool          `json:"contentCheckOk"`
}

type playerContext struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	DeviceMake        string `json:"deviceMake,omitempty"`
	DeviceModel       string `json:"deviceModel,omitempty"`
	OSName            string `json:"osName,omitempty"`
	OSVersion         string `json:"osVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

type playerResponse struct {
	VideoDetails struct {
		VideoID string `json:"videoId"`
		Title   string `json:"title"`
	} `json:"videoDetails"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" for auto-generated
}

// clientProfile is the player API identity used for a strategy client name
type clientProfile struct {
	client       innertubeClient
	clientNameID string // X-Youtube-Client-Name header value
	userAgent    string // Used when the strategy sets none
}

var clientProfiles = map[string]clientProfile{
	"android": {
		client: innertubeClient{
			ClientName:        "ANDROID",
			ClientVersion:     androidClientVersion,
			AndroidSdkVersion: 30,
			Hl:                "en",
			Gl:                "US",
		},
		clientNameID: "3",
		userAgent:    "com.google.android.youtube/" + androidClientVersion + " (Linux; U; Android 11) gzip",
	},
	"ios": {
		client: innertubeClient{
			ClientName:    "IOS",
			ClientVersion: iosClientVersion,
			DeviceMake:    "Apple",
			DeviceModel:   "iPhone14,3",
			OSName:        "iPhone",
			OSVersion:     "15.6.0.19G71",
			Hl:            "en",
			Gl:            "US",
		},
		clientNameID: "5",
		userAgent:    "com.google.ios.youtube/" + iosClientVersion + " (iPhone14,3; U; CPU iOS 15_6 like Mac OS X)",
	},
}

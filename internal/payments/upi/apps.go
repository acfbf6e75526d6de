package upi

import (
	"strings"
)

// App is a UPI payment app that can be opened directly from a link.
type App struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PackageName string `json:"package_name"`
	Scheme      string `json:"scheme"`
}

// Platform is the client OS family used to pick a hand-off link format.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformOther   Platform = "other"
)

var apps = []App{
	{ID: "phonepe", Name: "PhonePe", PackageName: "com.phonepe.app", Scheme: "phonepe"},
	{ID: "googlepay", Name: "Google Pay", PackageName: "com.google.android.apps.nbu.paisa.user", Scheme: "tez"},
	{ID: "paytm", Name: "Paytm", PackageName: "net.one97.paytm", Scheme: "paytmmp"},
	{ID: "bhim", Name: "BHIM", PackageName: "in.org.npci.upiapp", Scheme: "bhim"},
	{ID: "amazonpay", Name: "Amazon Pay", PackageName: "in.amazon.mShop.android.shopping", Scheme: "amazonpay"},
	{ID: "mobikwik", Name: "MobiKwik", PackageName: "com.mobikwik_new", Scheme: "mobikwik"},
}

// Apps returns the supported UPI apps in display order.
func Apps() []App {
	out := make([]App, len(apps))
	copy(out, apps)
	return out
}

// FindApp looks an app up by id.
func FindApp(id string) (App, bool) {
	for _, app := range apps {
		if app.ID == id {
			return app, true
		}
	}
	return App{}, false
}

// DetectPlatform classifies a User-Agent header.
func DetectPlatform(userAgent string) Platform {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "android"):
		return PlatformAndroid
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"), strings.Contains(ua, "ipod"):
		return PlatformIOS
	default:
		return PlatformOther
	}
}

// HandoffURL rewrites a upi://pay link into the form the target app opens
// directly: an Android intent, an iOS app scheme, or the generic link.
func HandoffURL(app App, link string, platform Platform) string {
	query := link
	if i := strings.Index(link, "?"); i >= 0 {
		query = link[i+1:]
	}
	switch platform {
	case PlatformAndroid:
		return "intent://pay?" + query + "#Intent;scheme=upi;package=" + app.PackageName + ";end"
	case PlatformIOS:
		return app.Scheme + "://pay?" + query
	default:
		return link
	}
}

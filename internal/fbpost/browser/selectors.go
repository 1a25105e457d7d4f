package browser

// Facebook web UI selectors. The UI is unversioned and changes without
// notice; update these tables when login or posting starts failing with
// composer errors.

var (
	emailInput    = []Locator{CSS("#email")}
	passwordInput = []Locator{CSS("#pass")}
	loginButton   = []Locator{CSS("button[name='login']")}

	composerTrigger = []Locator{
		Text("span", "무슨 생각"),
		Text("span", "What's on your mind"),
		LabelContains("", "생각"),
		LabelContains("", "mind"),
	}

	composerTextbox = []Locator{
		CSS("div[role='dialog'] div[contenteditable='true'][role='textbox']"),
		CSS("div[contenteditable='true'][role='textbox']"),
	}

	composerDialog = CSS("div[role='dialog'] div[contenteditable='true'][role='textbox']")

	postButton = []Locator{
		Label("div", "게시"),
		Label("div", "Post"),
		Text("span", "게시"),
		Text("span", "Post"),
	}

	photoVideoButton = []Locator{
		Label("", "사진/동영상"),
		Label("", "Photo/video"),
		LabelContains("", "Photo"),
		LabelContains("", "사진"),
	}

	fileInput = []Locator{
		CSS("input[type='file'][accept*='image']"),
		CSS("input[type='file']"),
	}
)

// twoFactorMarkers appear in the URL while Facebook waits for a second factor.
var twoFactorMarkers = []string{"checkpoint", "two_step_verification"}

package server

import (
	"fmt"
	"html"
	"net/http"
)

// setSecurityHeaders sets recommended security headers for HTML responses.
func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
}

// renderSuccessPage tells the user authorization completed. For relay
// sessions the code was stored server side, so the tab can simply be
// closed; the code itself is never shown.
func renderSuccessPage(w http.ResponseWriter, relaySession bool) {
	setSecurityHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	note := "The authorization has been processed. You can close this tab and return to your assistant."
	if relaySession {
		note = "The authorization was recorded automatically. You can close this tab - your assistant will pick it up within seconds."
	}

	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Authorization Successful</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%);
            min-height: 100vh;
            display: flex;
            align-items: center;
            justify-content: center;
        }
        .container {
            text-align: center;
            padding: 3rem;
            background: white;
            border-radius: 20px;
            box-shadow: 0 10px 40px rgba(0,0,0,0.2);
            max-width: 500px;
            margin: 1rem;
        }
        .checkmark { font-size: 3.5rem; margin-bottom: 1rem; }
        h1 { color: #667eea; font-size: 1.75rem; margin-bottom: 0.5rem; }
        p { color: #666; line-height: 1.6; margin-top: 1rem; }
    </style>
</head>
<body>
    <div class="container">
        <div class="checkmark">✅</div>
        <h1>Authorization Successful</h1>
        <p>%s</p>
    </div>
</body>
</html>`, html.EscapeString(note))
}

// renderErrorPage tells the user authorization failed.
func renderErrorPage(w http.ResponseWriter, message string) {
	setSecurityHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)

	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Authorization Failed</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%);
            min-height: 100vh;
            display: flex;
            align-items: center;
            justify-content: center;
        }
        .container {
            text-align: center;
            padding: 3rem;
            background: white;
            border-radius: 20px;
            box-shadow: 0 10px 40px rgba(0,0,0,0.2);
            max-width: 500px;
            margin: 1rem;
        }
        .error-icon { font-size: 3.5rem; margin-bottom: 1rem; }
        h1 { color: #e94560; font-size: 1.75rem; margin-bottom: 0.5rem; }
        .message { color: #e94560; font-weight: 500; margin-top: 1rem; }
        p { color: #666; line-height: 1.6; margin-top: 1rem; }
    </style>
</head>
<body>
    <div class="container">
        <div class="error-icon">❌</div>
        <h1>Authorization Failed</h1>
        <p class="message">%s</p>
        <p>You can close this window and try again.</p>
    </div>
</body>
</html>`, html.EscapeString(message))
}

package middleware

import (
	"github.com/go-resty/resty/v2"
	"github.com/ternarybob/arbor"
)

// Logging attaches request logging hooks to a resty client
func Logging(client *resty.Client, logger arbor.ILogger) *resty.Client {
	return client.
		OnAfterResponse(ResponseLogger(logger)).
		OnError(ErrorLogger(logger))
}

// ResponseLogger logs method, url, status and duration of each completed API call
func ResponseLogger(logger arbor.ILogger) resty.ResponseMiddleware {
	return func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug().
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL).
			Int("status", resp.StatusCode()).
			Dur("duration", resp.Time()).
			Msg("GitLab request")
		return nil
	}
}

// ErrorLogger logs API calls that failed before a response was received
func ErrorLogger(logger arbor.ILogger) resty.ErrorHook {
	return func(req *resty.Request, err error) {
		logger.Warn().
			Err(err).
			Str("method", req.Method).
			Str("url", req.URL).
			Msg("GitLab request failed")
	}
}

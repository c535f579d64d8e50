package subsonic

import (
	"bytes"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/sonicd/sonicd/src/version"
)

const (
	apiVersion   = "1.15.0"
	xmlNamespace = "http://subsonic.org/restapi"
)

func newResponse(status string) *Element {
	return NewElement("subsonic-response").
		Set("xmlns", xmlNamespace).
		Set("status", status).
		Set("version", apiVersion).
		Set("type", version.Name).
		Set("serverVersion", version.Version)
}

func responseOk() *Element {
	return newResponse("ok")
}

func responseError(code apiErrorCode, msg string) *Element {
	resp := newResponse("failed")
	resp.Child("error").
		Set("code", int(code)).
		Set("message", msg)
	return resp
}

// respondError writes the API error for `err`.
func respondError(w http.ResponseWriter, req *http.Request, err error) {
	encodeResponse(w, req, responseError(errorCode(err), err.Error()))
}

func encodeResponse(w http.ResponseWriter, req *http.Request, doc *Element) {
	encodeResponseStatus(w, req, http.StatusOK, doc)
}

// encodeResponseStatus renders `doc` in the format selected by the `f`
// parameter. JSONP without a callback is rendered as XML.
func encodeResponseStatus(w http.ResponseWriter, req *http.Request, status int, doc *Element) {
	format := req.Form.Get("f")
	callback := req.Form.Get("callback")

	if format == "jsonp" && callback == "" {
		format = "xml"
	}

	if format == "jsonp" && !callbackPattern.MatchString(callback) {
		format = "xml"
		status = http.StatusBadRequest
		doc = responseError(errCodeGeneric, "callback must contain only letters, digits and underscores")
	}

	rnd, ok := renderers[format]
	if !ok {
		rnd = renderers["xml"]
	}

	var buf bytes.Buffer
	if err := rnd.render(&buf, doc, callback); err != nil {
		log.Error().Err(err).Str("format", format).Msg("encoding response")
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", rnd.contentType)
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Debug().Err(err).Msg("writing response")
	}
}

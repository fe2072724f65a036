package httpserver

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/scriptorium/internal/logging"
	"github.com/Skotchmaster/scriptorium/internal/service"
	"github.com/Skotchmaster/scriptorium/internal/transport"
)

// maxAudioSize matches the upstream transcription limit.
const maxAudioSize = 25 << 20

type DescribeHTTP struct {
	Svc *service.DescribeService
}

func (h *DescribeHTTP) UploadImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "describe.upload_image")

	fh, err := c.FormFile("image")
	if err != nil {
		return badRequest(l, "upload_image_error", "image file is required", err)
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(l, "upload_image_error", "cannot read image", err)
	}
	defer f.Close()

	key, err := h.Svc.UploadImage(ctx, fh.Header.Get(echo.HeaderContentType), f)
	if err != nil {
		return fail(l, "upload_image_error", err)
	}

	l.Info("upload_image_success", "key", key, "size", fh.Size)
	return c.JSON(http.StatusCreated, transport.UploadResponse{ImageKey: key})
}

func (h *DescribeHTTP) Caption(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "describe.caption")

	var req transport.CaptionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "caption_error", msgInvalidBody, err)
	}

	caption, err := h.Svc.Caption(ctx, req.ImageKey)
	if err != nil {
		return fail(l, "caption_error", err)
	}
	return c.JSON(http.StatusOK, transport.CaptionResponse{ImageKey: req.ImageKey, Caption: caption})
}

func (h *DescribeHTTP) Speech(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "describe.speech")

	var req transport.SpeechRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "speech_error", msgInvalidBody, err)
	}

	audio, err := h.Svc.Speech(ctx, req.Text)
	if err != nil {
		return fail(l, "speech_error", err)
	}
	return c.Blob(http.StatusOK, "audio/mpeg", audio)
}

func (h *DescribeHTTP) Ask(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "describe.ask")

	imageKey := c.FormValue("imageKey")
	fh, err := c.FormFile("audio")
	if err != nil {
		return badRequest(l, "ask_error", "audio file is required", err)
	}
	if fh.Size > maxAudioSize {
		return badRequest(l, "ask_error", "audio file too large", nil)
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(l, "ask_error", "cannot read audio", err)
	}
	defer f.Close()

	audio, err := io.ReadAll(io.LimitReader(f, maxAudioSize))
	if err != nil {
		return badRequest(l, "ask_error", "cannot read audio", err)
	}

	question, answer, err := h.Svc.Ask(ctx, imageKey, audio, fh.Filename)
	if err != nil {
		return fail(l, "ask_error", err)
	}

	l.Info("ask_success", "key", imageKey)
	return c.JSON(http.StatusOK, transport.AskResponse{ImageKey: imageKey, Question: question, Answer: answer})
}

func (h *DescribeHTTP) Weather(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "weather.current")

	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return badRequest(l, "weather_error", "lat must be a number", err)
	}
	lon, err := strconv.ParseFloat(c.QueryParam("lon"), 64)
	if err != nil {
		return badRequest(l, "weather_error", "lon must be a number", err)
	}

	cond, err := h.Svc.Weather(ctx, lat, lon)
	if err != nil {
		return fail(l, "weather_error", err)
	}
	return c.JSON(http.StatusOK, cond)
}

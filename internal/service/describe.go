package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/Skotchmaster/scriptorium/internal/storage"
	"github.com/Skotchmaster/scriptorium/internal/vision"
	"github.com/Skotchmaster/scriptorium/internal/weather"
)

var ErrUnavailable = errors.New("service unavailable")

const maxSpeechLen = 4096

type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64) (*weather.Conditions, error)
}

// DescribeService backs the accessibility endpoints used by the camera
// client.
type DescribeService struct {
	Images   storage.ImageStore
	Vision   vision.Describer
	Forecast WeatherSource
}

func mapDescribeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, storage.ErrInvalidKey),
		errors.Is(err, storage.ErrNotAnImage),
		errors.Is(err, storage.ErrTooLarge),
		errors.Is(err, storage.ErrEmpty),
		errors.Is(err, vision.ErrEmptyInput),
		errors.Is(err, weather.ErrBadCoords):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	case errors.Is(err, vision.ErrNotConfigured),
		errors.Is(err, vision.ErrUpstream),
		errors.Is(err, weather.ErrNotConfigured),
		errors.Is(err, weather.ErrUpstream):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return err
	}
}

func (s *DescribeService) UploadImage(ctx context.Context, contentType string, r io.Reader) (string, error) {
	key, err := s.Images.Save(ctx, contentType, r)
	return key, mapDescribeErr(err)
}

func (s *DescribeService) Caption(ctx context.Context, imageKey string) (string, error) {
	img, err := s.Images.Load(ctx, strings.TrimSpace(imageKey))
	if err != nil {
		return "", mapDescribeErr(err)
	}
	caption, err := s.Vision.Caption(ctx, img.Data, img.ContentType)
	return caption, mapDescribeErr(err)
}

func (s *DescribeService) Speech(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("text is required")
	}
	if utf8.RuneCountInString(text) > maxSpeechLen {
		return nil, invalid("text is longer than %d characters", maxSpeechLen)
	}
	audio, err := s.Vision.Speak(ctx, text)
	return audio, mapDescribeErr(err)
}

// Ask transcribes a spoken question and answers it about the stored image.
func (s *DescribeService) Ask(ctx context.Context, imageKey string, audio []byte, filename string) (string, string, error) {
	img, err := s.Images.Load(ctx, strings.TrimSpace(imageKey))
	if err != nil {
		return "", "", mapDescribeErr(err)
	}
	question, err := s.Vision.Transcribe(ctx, audio, filename)
	if err != nil {
		return "", "", mapDescribeErr(err)
	}
	if question == "" {
		return "", "", invalid("could not understand the question")
	}
	answer, err := s.Vision.Answer(ctx, img.Data, img.ContentType, question)
	if err != nil {
		return question, "", mapDescribeErr(err)
	}
	return question, answer, nil
}

func (s *DescribeService) Weather(ctx context.Context, lat, lon float64) (*weather.Conditions, error) {
	if s.Forecast == nil {
		return nil, ErrUnavailable
	}
	cond, err := s.Forecast.Current(ctx, lat, lon)
	return cond, mapDescribeErr(err)
}

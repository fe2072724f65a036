package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/scriptorium/internal/storage"
	"github.com/Skotchmaster/scriptorium/internal/vision"
	"github.com/Skotchmaster/scriptorium/internal/weather"
)

type fakeVision struct {
	question string
	err      error
	gotQ     string
}

func (f *fakeVision) Caption(_ context.Context, image []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "a cat on a " + string(image), nil
}

func (f *fakeVision) Speak(_ context.Context, text string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("mp3:" + text), nil
}

func (f *fakeVision) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	return f.question, f.err
}

func (f *fakeVision) Answer(_ context.Context, _ []byte, _ string, question string) (string, error) {
	f.gotQ = question
	return "it is orange", f.err
}

type fakeForecast struct {
	err error
}

func (f fakeForecast) Current(_ context.Context, lat, lon float64) (*weather.Conditions, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &weather.Conditions{Location: "Berlin", TempC: 21.5}, nil
}

func newDescribe(t *testing.T, v vision.Describer) (*DescribeService, string) {
	t.Helper()
	store, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)
	key, err := store.Save(context.Background(), "image/png", bytes.NewReader([]byte("sofa")))
	require.NoError(t, err)
	return &DescribeService{Images: store, Vision: v, Forecast: fakeForecast{}}, key
}

func TestDescribe_Caption(t *testing.T) {
	t.Parallel()
	s, key := newDescribe(t, &fakeVision{})
	ctx := context.Background()

	caption, err := s.Caption(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "a cat on a sofa", caption)

	_, err = s.Caption(ctx, "../etc/passwd")
	require.ErrorIs(t, err, ErrValidation)

	_, err = s.Caption(ctx, "images/00000000-0000-0000-0000-000000000000.png")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDescribe_UploadRejectsNonImages(t *testing.T) {
	t.Parallel()
	s, _ := newDescribe(t, &fakeVision{})

	_, err := s.UploadImage(context.Background(), "text/plain", strings.NewReader("hello"))
	require.ErrorIs(t, err, ErrValidation)
}

func TestDescribe_Speech(t *testing.T) {
	t.Parallel()
	s, _ := newDescribe(t, &fakeVision{})
	ctx := context.Background()

	audio, err := s.Speech(ctx, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "mp3:hello", string(audio))

	_, err = s.Speech(ctx, " ")
	require.ErrorIs(t, err, ErrValidation)
	_, err = s.Speech(ctx, strings.Repeat("a", maxSpeechLen+1))
	require.ErrorIs(t, err, ErrValidation)

	s.Vision = &fakeVision{err: vision.ErrNotConfigured}
	_, err = s.Speech(ctx, "hello")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestDescribe_Ask(t *testing.T) {
	t.Parallel()
	v := &fakeVision{question: "what colour is the cat?"}
	s, key := newDescribe(t, v)
	ctx := context.Background()

	q, a, err := s.Ask(ctx, key, []byte("audio"), "q.webm")
	require.NoError(t, err)
	assert.Equal(t, "what colour is the cat?", q)
	assert.Equal(t, "it is orange", a)
	assert.Equal(t, q, v.gotQ)

	v.question = ""
	_, _, err = s.Ask(ctx, key, []byte("audio"), "q.webm")
	require.ErrorIs(t, err, ErrValidation)
}

func TestDescribe_Weather(t *testing.T) {
	t.Parallel()
	s, _ := newDescribe(t, &fakeVision{})
	ctx := context.Background()

	cond, err := s.Weather(ctx, 52.5, 13.4)
	require.NoError(t, err)
	assert.Equal(t, "Berlin", cond.Location)

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"bad coords", weather.ErrBadCoords, ErrValidation},
		{"no key", weather.ErrNotConfigured, ErrUnavailable},
		{"upstream", weather.ErrUpstream, ErrUnavailable},
		{"other", errors.New("boom"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &DescribeService{Forecast: fakeForecast{err: tt.err}}
			_, err := s.Weather(ctx, 0, 0)
			require.Error(t, err)
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
			}
		})
	}

	_, err = (&DescribeService{}).Weather(ctx, 0, 0)
	require.ErrorIs(t, err, ErrUnavailable)
}

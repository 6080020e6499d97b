package service

import (
	"context"
	"fmt"

	"github.com/pep299/iracify/internal/repository"
)

// InputKind is how the judgment was supplied.
type InputKind string

const (
	InputText   InputKind = "text"
	InputURL    InputKind = "url"
	InputUpload InputKind = "upload"
)

// Input is a judgment as submitted by the user.
type Input struct {
	Kind     InputKind
	Text     string
	URL      string
	FileName string
	Data     []byte
}

func TextInput(text string) Input { return Input{Kind: InputText, Text: text} }

func URLInput(url string) Input { return Input{Kind: InputURL, URL: url} }

func UploadInput(name string, data []byte) Input {
	return Input{Kind: InputUpload, FileName: name, Data: data}
}

// resolve turns any input into plain text. The returned source is the URL
// for URL input and empty otherwise.
func resolve(ctx context.Context, sources repository.SourceRepository, in Input) (text, sourceURL, kind string, err error) {
	switch in.Kind {
	case InputText:
		if err := repository.CheckPastedText(in.Text); err != nil {
			return "", "", "", err
		}
		return in.Text, "", repository.KindText, nil
	case InputURL:
		doc, err := sources.Fetch(ctx, in.URL)
		if err != nil {
			return "", "", "", err
		}
		return doc.Text, doc.Source, doc.Kind, nil
	case InputUpload:
		doc, err := sources.ExtractUpload(in.FileName, in.Data)
		if err != nil {
			return "", "", "", err
		}
		return doc.Text, "", doc.Kind, nil
	default:
		return "", "", "", &repository.FetchError{Source: string(in.Kind), Message: fmt.Sprintf("unknown input kind %q", in.Kind)}
	}
}

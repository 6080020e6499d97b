package iracify

import (
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/pep299/iracify/internal/transport/server"
)

// FunctionName is the Cloud Functions entry point.
const FunctionName = "Iracify"

func init() {
	functions.HTTP(FunctionName, server.HandleRequest)
}

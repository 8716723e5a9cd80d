package ui

import (
	"hoffenc/internal/model"
	"hoffenc/internal/progress"
)

type fileUpdateMsg struct {
	U progress.Update
}

type fileLogMsg struct {
	L progress.Log
}

type fileResultMsg struct {
	R progress.Result
}

type batchDoneMsg struct {
	Report model.BatchReport
}

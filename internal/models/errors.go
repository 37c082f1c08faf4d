package models

import "errors"

// Стандартные ошибки приложения
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input data")

	// Импорт/экспорт
	ErrMalformedImport = errors.New("malformed import document")

	// Проигрывание
	ErrEmptyPlayback    = errors.New("story has no moments to play")
	ErrPlaybackNotFound = errors.New("playback session not found")
	ErrPlaybackFinished = errors.New("playback session has been exited")
	ErrChoiceNotFound   = errors.New("choice not found on current moment")

	// Редактор
	ErrNoActiveSession = errors.New("no active edit session")
	ErrStickerNotFound = errors.New("sticker not found")
	ErrNoActiveDrag    = errors.New("no active drag session")
	ErrWordOutOfRange  = errors.New("word index out of range")
)

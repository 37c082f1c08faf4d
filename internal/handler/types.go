package handler

import (
	"storymatrix/internal/editor"
	"storymatrix/internal/models"
	"storymatrix/internal/navigator"
	"storymatrix/internal/ordering"
	"storymatrix/internal/stickers"
	"storymatrix/internal/store"
)

type ingestRequest struct {
	Items []store.IngestItem `json:"items" binding:"required,min=1,dive"`
}

type ingestResponse struct {
	Added []models.Moment `json:"added"`
}

type idsRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

type deleteMomentsResponse struct {
	Deleted int `json:"deleted"`
}

type createStoryRequest struct {
	Title     string   `json:"title" binding:"required"`
	MomentIDs []string `json:"momentIds"`
}

type reorderRequest struct {
	DraggedID string        `json:"draggedId" binding:"required"`
	TargetID  string        `json:"targetId" binding:"required"`
	Side      ordering.Side `json:"side" binding:"required"`
}

type renameStoryRequest struct {
	Title string `json:"title" binding:"required"`
}

type toggleSelectionRequest struct {
	MomentID string `json:"momentId" binding:"required"`
}

type selectionResponse struct {
	Selection []string `json:"selection"`
}

type editorResponse struct {
	State      editor.State         `json:"state"`
	Transforms []stickers.Transform `json:"transforms"`
}

type modeRequest struct {
	Mode editor.Mode `json:"mode" binding:"required"`
}

type textRequest struct {
	Text string `json:"text"`
}

type selectWordRequest struct {
	Index *int `json:"index"`
}

type effectRequest struct {
	Effect models.Effect `json:"effect" binding:"required"`
}

type addStickerRequest struct {
	Content string `json:"content" binding:"required"`
}

type animationRequest struct {
	Animation models.Animation `json:"animation" binding:"required"`
}

type tweenEndRequest struct {
	On bool `json:"on"`
}

type dragBeginRequest struct {
	StickerID string         `json:"stickerId"`
	Panel     string         `json:"panel"`
	Pointer   stickers.Point `json:"pointer"`
	Container stickers.Size  `json:"container"`
}

type dragMoveRequest struct {
	Pointer stickers.Point `json:"pointer"`
}

type dragEndResponse struct {
	Ended bool `json:"ended"`
}

type choicePatchRequest struct {
	Label          *string `json:"label"`
	TargetMomentID *string `json:"targetMomentId"`
}

type startPlaybackRequest struct {
	StoryID       string `json:"storyId" binding:"required"`
	StartMomentID string `json:"startMomentId"`
}

type playbackResponse struct {
	SessionID string          `json:"sessionId"`
	Frame     navigator.Frame `json:"frame"`
}

type keyRequest struct {
	Key string `json:"key" binding:"required"`
}

type keyResponse struct {
	Action navigator.Action `json:"action"`
	Frame  navigator.Frame  `json:"frame"`
}

type choiceRequest struct {
	ChoiceID string `json:"choiceId" binding:"required"`
}

type jumpRequest struct {
	MomentID string `json:"momentId" binding:"required"`
}

package lsp

import (
	"context"
	"fmt"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/soql/complete"
)

// TriggerCharacters open the completion list without an explicit request.
var TriggerCharacters = []string{".", " ", "(", ","}

// Completion handles textDocument/completion requests. The whole document
// is treated as one query.
func (s *Server) Completion(_ context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	s.logger.Debug("Completion",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()

	text := doc.Content
	cursor := OffsetAt(text, params.Position)
	res := doc.engine.Pass(text, cursor)

	return completionList(text, cursor, res.Suggestions), nil
}

func completionList(text string, cursor int, list complete.Suggestions) *protocol.CompletionList {
	switch list.State {
	case complete.ListLoading:
		// Nothing to insert yet; the client asks again on the next keystroke.
		pos := PositionAt(text, cursor)

		return &protocol.CompletionList{
			IsIncomplete: true,
			Items: []protocol.CompletionItem{{
				Label:      list.Placeholder,
				Kind:       protocol.CompletionItemKindText,
				FilterText: list.Token,
				TextEdit:   &protocol.TextEdit{Range: protocol.Range{Start: pos, End: pos}},
			}},
		}
	case complete.ListReady:
		items := make([]protocol.CompletionItem, 0, len(list.Items))
		for i, it := range list.Items {
			items = append(items, completionItem(text, cursor, list, i, it))
		}

		return &protocol.CompletionList{Items: items}
	default:
		return &protocol.CompletionList{Items: []protocol.CompletionItem{}}
	}
}

func completionItem(text string, cursor int, list complete.Suggestions, i int, it complete.Item) protocol.CompletionItem {
	ins := complete.Apply(text, cursor, it.InsertValue)

	item := protocol.CompletionItem{
		Label:      it.DisplayLabel,
		Kind:       itemKind(list.Category, it),
		Detail:     strings.TrimSuffix(list.Title, ":"),
		FilterText: it.InsertValue,
		SortText:   fmt.Sprintf("%05d", i),
		Preselect:  i == 0,
		TextEdit: &protocol.TextEdit{
			Range: protocol.Range{
				Start: PositionAt(text, ins.Start),
				End:   PositionAt(text, ins.End),
			},
			NewText: ins.Inserted,
		},
	}

	if it.DisplayLabel != it.InsertValue {
		item.Detail = it.InsertValue
	}

	if strings.HasSuffix(it.InsertValue, ".") {
		// Keep the list open after a relationship prefix.
		item.Command = &protocol.Command{Title: "Suggest", Command: "editor.action.triggerSuggest"}
	}

	return item
}

func itemKind(category complete.Category, it complete.Item) protocol.CompletionItemKind {
	switch category {
	case complete.CategorySource:
		return protocol.CompletionItemKindClass
	case complete.CategoryOperator:
		return protocol.CompletionItemKindOperator
	case complete.CategoryValue:
		return protocol.CompletionItemKindValue
	case complete.CategoryField:
		if strings.HasSuffix(it.InsertValue, ".") {
			return protocol.CompletionItemKindReference
		}

		return protocol.CompletionItemKindField
	}

	return protocol.CompletionItemKindText
}

package handler

import (
	"go.uber.org/zap"

	"github.com/uogo/client/internal/core/event"
	"github.com/uogo/client/internal/net/packet"
)

// HandleUnicodePrompt processes 0xC2. The client takes the next input line
// as the answer and sends the prompt response.
func HandleUnicodePrompt(sess Conn, p *packet.UnicodePrompt, deps *Deps) {
	event.Emit(deps.Events, event.PromptRequested{PlayerSerial: p.PlayerSerial, PromptSerial: p.PromptSerial})
}

// HandleCloseGump processes 0xBF/0x04.
func HandleCloseGump(sess Conn, p *packet.CloseGump, deps *Deps) {
	deps.Log.Debug("close gump", zap.Uint32("type", p.TypeID), zap.Uint32("button", p.ButtonID))
	event.Emit(deps.Events, event.GumpClosed{TypeID: p.TypeID, ButtonID: p.ButtonID})
}

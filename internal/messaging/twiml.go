package messaging

import (
	"encoding/xml"
	"fmt"

	"github.com/iconicmx/chatbot-platform/internal/compose"
)

type twimlResponse struct {
	XMLName  xml.Name `xml:"Response"`
	Messages []string `xml:"Message"`
}

// RenderTwiML wraps the message bodies in the XML envelope Twilio expects.
func RenderTwiML(bodies ...string) ([]byte, error) {
	out, err := xml.Marshal(twimlResponse{Messages: bodies})
	if err != nil {
		return nil, fmt.Errorf("messaging: render twiml: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// FlattenReply renders a structured reply as plain WhatsApp text, appending
// button labels as numbered lines since the channel has no native buttons here.
func FlattenReply(reply compose.Reply) string {
	if len(reply.Buttons) == 0 {
		return reply.Text
	}
	text := reply.Text + "\n"
	for i, btn := range reply.Buttons {
		text += fmt.Sprintf("\n%d. %s", i+1, btn.Label)
	}
	return text
}

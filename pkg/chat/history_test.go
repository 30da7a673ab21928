package chat_test

import (
	"encoding/json"
	"fmt"

	"github.com/scribeworks/scribe/pkg/chat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TrimHistory", func() {
	alternating := func(n int) []chat.Message {
		history := make([]chat.Message, 0, n)
		for i := 0; i < n; i++ {
			if i%2 == 0 {
				history = append(history, chat.NewUserMessage(fmt.Sprintf("question %d [1]", i)))
			} else {
				history = append(history, chat.NewAssistantMessage(fmt.Sprintf("answer %d [2]", i), nil))
			}
		}
		return history
	}

	It("should keep a short history intact apart from marker stripping", func() {
		trimmed := chat.TrimHistory(alternating(4), 10)
		Expect(trimmed).To(HaveLen(4))
		Expect(trimmed[0].IsUser()).To(BeTrue())
	})

	It("should keep only the recent window and start at a user turn", func() {
		trimmed := chat.TrimHistory(alternating(15), 10)

		// The last ten turns of fifteen start on an assistant turn, which
		// is dropped along with nothing else.
		Expect(trimmed).To(HaveLen(9))
		Expect(trimmed[0].IsUser()).To(BeTrue())
		Expect(trimmed[0].Content).To(ContainSubstring("question 6"))
	})

	It("should strip rendered citation markers from every turn", func() {
		for _, msg := range chat.TrimHistory(alternating(15), 10) {
			Expect(msg.Content).ToNot(MatchRegexp(`\[\d+\]`))
		}
	})

	It("should drop everything when no user turn remains", func() {
		history := []chat.Message{
			chat.NewAssistantMessage("orphaned answer", nil),
		}
		Expect(chat.TrimHistory(history, 10)).To(BeEmpty())
	})

	It("should fall back to the default window", func() {
		trimmed := chat.TrimHistory(alternating(30), 0)
		Expect(len(trimmed)).To(BeNumerically("<=", chat.DefaultHistoryWindow))
	})
})

var _ = Describe("BuildPayload", func() {
	It("should double-encode the message history", func() {
		history := []chat.Message{
			chat.NewUserMessage("what changed?"),
			chat.NewAssistantMessage("the schedule", nil),
		}

		payload, err := chat.BuildPayload(history, "dana", nil, "")
		Expect(err).ToNot(HaveOccurred())

		var outer struct {
			Messages        string `json:"messages"`
			Username        string `json:"username"`
			MediaNames      string `json:"media_names"`
			TranscriptJobID string `json:"transcript_job_id"`
		}
		Expect(json.Unmarshal([]byte(payload), &outer)).To(Succeed())
		Expect(outer.Username).To(Equal("dana"))
		Expect(outer.MediaNames).To(BeEmpty())
		Expect(outer.TranscriptJobID).To(BeEmpty())

		var messages []struct {
			Role    string `json:"role"`
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		}
		Expect(json.Unmarshal([]byte(outer.Messages), &messages)).To(Succeed())
		Expect(messages).To(HaveLen(2))
		Expect(messages[0].Role).To(Equal(chat.RoleUser))
		Expect(messages[0].Content[0].Text).To(Equal("what changed?"))
		Expect(messages[1].Role).To(Equal(chat.RoleAssistant))
	})

	It("should encode the media filter as a JSON string when present", func() {
		payload, err := chat.BuildPayload(nil, "dana", []string{"a.mp4", "b.mp4"}, "")
		Expect(err).ToNot(HaveOccurred())

		var outer map[string]any
		Expect(json.Unmarshal([]byte(payload), &outer)).To(Succeed())
		Expect(outer["media_names"]).To(Equal(`["a.mp4","b.mp4"]`))
	})

	It("should carry the transcript job id when targeting one file", func() {
		payload, err := chat.BuildPayload(nil, "dana", nil, "job-123")
		Expect(err).ToNot(HaveOccurred())
		Expect(payload).To(ContainSubstring(`"transcript_job_id":"job-123"`))
	})
})

package chat_test

import (
	"github.com/scribeworks/scribe/pkg/chat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reconcile", func() {
	fragment := func(text string, citations ...chat.Citation) chat.AnswerFragment {
		return chat.AnswerFragment{Text: text, Citations: citations}
	}

	It("should return an empty view for an empty history", func() {
		view := chat.Reconcile(nil)
		Expect(view.Text).To(BeEmpty())
		Expect(view.Citations).To(BeEmpty())
	})

	It("should append one display token per citation", func() {
		view := chat.Reconcile([]chat.AnswerFragment{
			fragment("The roadmap slipped",
				chat.Citation{MediaName: "allhands.mp4", Timestamp: 120},
				chat.Citation{MediaName: "retro.mp4", Timestamp: 33},
			),
		})

		Expect(view.Text).To(Equal("The roadmap slipped[1][2]"))
		Expect(view.Citations).To(HaveLen(2))
		Expect(view.Citations[1].MediaName).To(Equal("allhands.mp4"))
		Expect(view.Citations[2].MediaName).To(Equal("retro.mp4"))
	})

	It("should merge near-identical citations across fragments", func() {
		view := chat.Reconcile([]chat.AnswerFragment{
			fragment("A [1]", chat.Citation{MediaName: "f.mp4", Timestamp: 10}),
			fragment(" B [1]", chat.Citation{MediaName: "f.mp4", Timestamp: 10.3}),
		})

		Expect(view.Text).To(Equal("A [1] B [1]"))
		Expect(view.Citations).To(HaveLen(1))
		Expect(view.Citations[1].Timestamp).To(Equal(10.0))
	})

	It("should merge timestamps differing by less than a second", func() {
		view := chat.Reconcile([]chat.AnswerFragment{
			fragment("x", chat.Citation{MediaName: "f.mp4", Timestamp: 10}),
			fragment("y", chat.Citation{MediaName: "f.mp4", Timestamp: 10.99}),
		})

		Expect(view.Citations).To(HaveLen(1))
	})

	It("should not merge timestamps exactly one second apart", func() {
		view := chat.Reconcile([]chat.AnswerFragment{
			fragment("x", chat.Citation{MediaName: "f.mp4", Timestamp: 10}),
			fragment("y", chat.Citation{MediaName: "f.mp4", Timestamp: 11}),
		})

		Expect(view.Citations).To(HaveLen(2))
	})

	It("should keep citations of different media distinct at equal timestamps", func() {
		view := chat.Reconcile([]chat.AnswerFragment{
			fragment("x", chat.Citation{MediaName: "a.mp4", Timestamp: 5}),
			fragment("y", chat.Citation{MediaName: "b.mp4", Timestamp: 5}),
		})

		Expect(view.Citations).To(HaveLen(2))
	})

	It("should be a pure function of the history", func() {
		history := []chat.AnswerFragment{
			fragment("first", chat.Citation{MediaName: "a.mp4", Timestamp: 1}),
			fragment("second", chat.Citation{MediaName: "b.mp4", Timestamp: 2}),
			fragment("third", chat.Citation{MediaName: "a.mp4", Timestamp: 1.5}),
		}

		once := chat.Reconcile(history)
		twice := chat.Reconcile(history)

		Expect(twice.Text).To(Equal(once.Text))
		Expect(twice.Citations).To(Equal(once.Citations))
	})

	It("should never renumber citations when the history grows", func() {
		base := []chat.AnswerFragment{
			fragment("first", chat.Citation{MediaName: "a.mp4", Timestamp: 1}),
			fragment("second", chat.Citation{MediaName: "b.mp4", Timestamp: 2}),
		}
		extended := append(append([]chat.AnswerFragment{}, base...),
			fragment("third",
				chat.Citation{MediaName: "c.mp4", Timestamp: 3},
				chat.Citation{MediaName: "a.mp4", Timestamp: 1.2},
			),
		)

		before := chat.Reconcile(base)
		after := chat.Reconcile(extended)

		for id, citation := range before.Citations {
			Expect(after.Citations[id]).To(Equal(citation))
		}
		Expect(after.Citations).To(HaveLen(3))
		Expect(after.Citations[3].MediaName).To(Equal("c.mp4"))
		Expect(after.Text).To(HaveSuffix("third[3][1]"))
	})

	It("should normalize escaped newlines in fragment text", func() {
		view := chat.Reconcile([]chat.AnswerFragment{
			fragment(`line one\nline two`),
		})

		Expect(view.Text).To(Equal("line one\nline two"))
	})

	It("should strip stale inline markers before appending canonical tokens", func() {
		view := chat.Reconcile([]chat.AnswerFragment{
			fragment("claim [7] stands", chat.Citation{MediaName: "f.mp4", Timestamp: 3}),
		})

		Expect(view.Text).To(Equal("claim  stands[1]"))
	})

	Describe("CitationList", func() {
		It("should return citations in ID order", func() {
			view := chat.Reconcile([]chat.AnswerFragment{
				fragment("x",
					chat.Citation{MediaName: "b.mp4", Timestamp: 2},
					chat.Citation{MediaName: "a.mp4", Timestamp: 1},
					chat.Citation{MediaName: "c.mp4", Timestamp: 3},
				),
			})

			list := view.CitationList()
			Expect(list).To(HaveLen(3))
			Expect(list[0].ID).To(Equal(1))
			Expect(list[0].MediaName).To(Equal("b.mp4"))
			Expect(list[2].ID).To(Equal(3))
			Expect(list[2].MediaName).To(Equal("c.mp4"))
		})
	})
})

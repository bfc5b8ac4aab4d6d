package embedbuilder

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type PaginateSuite struct {
	suite.Suite
	session *MockSession
}

func TestPaginateSuite(t *testing.T) {
	suite.Run(t, new(PaginateSuite))
}

func (s *PaginateSuite) SetupTest() {
	s.session = new(MockSession)
}

// boundPager sends a paginated message with n pages into a text channel and
// returns the bound controller.
func (s *PaginateSuite) boundPager(n int, timeout time.Duration) *Paginator {
	s.session.On("ChannelMessageSendComplex", "ch-1", mock.Anything, mock.Anything).
		Return(&discordgo.Message{ID: "msg-1", ChannelID: "ch-1"}, nil).Once()

	ch := &discordgo.Channel{ID: "ch-1", Type: discordgo.ChannelTypeGuildText}
	b := New(s.session, ChannelOrigin(ch)).
		SetAuthor("Test Author", "", "").
		EnablePagination(timeout)
	for i := 1; i <= n; i++ {
		b.AddPage(Page{Description: "page " + strconv.Itoa(i)})
	}

	msgs, err := b.Send(context.Background())
	require.NoError(s.T(), err)
	require.Len(s.T(), msgs, 1)
	pager := b.Paginator()
	require.NotNil(s.T(), pager)
	require.Equal(s.T(), PaginatorBound, pager.State())
	return pager
}

// editedFooter returns the footer text of the embed in the nth
// ChannelMessageEditComplex call.
func (s *PaginateSuite) editedFooter(n int) string {
	var edits []*discordgo.MessageEdit
	for _, call := range s.session.Calls {
		if call.Method == "ChannelMessageEditComplex" {
			edits = append(edits, call.Arguments.Get(0).(*discordgo.MessageEdit))
		}
	}
	require.Greater(s.T(), len(edits), n)
	return (*edits[n].Embeds)[0].Footer.Text
}

func (s *PaginateSuite) componentPress(pager *Paginator, action string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ID:   "press-1",
			Type: discordgo.InteractionMessageComponent,
			Data: discordgo.MessageComponentInteractionData{
				ComponentType: discordgo.ButtonComponent,
				CustomID:      pager.customID(action),
			},
		},
	}
}

func (s *PaginateSuite) TestSendBindsAndRendersFirstPage() {
	pager := s.boundPager(3, time.Minute)
	require.Equal(s.T(), 0, pager.CurrentIndex())
	require.Equal(s.T(), 3, pager.PageCount())

	sent := s.session.Calls[0].Arguments.Get(1).(*discordgo.MessageSend)
	require.Len(s.T(), sent.Embeds, 1)
	require.Equal(s.T(), "page 1", sent.Embeds[0].Description)
	require.Equal(s.T(), "Page 1/3", sent.Embeds[0].Footer.Text)

	require.Len(s.T(), sent.Components, 1)
	row := sent.Components[0].(discordgo.ActionsRow)
	require.Len(s.T(), row.Components, 5)
	// Backward navigation starts disabled, forward enabled.
	require.True(s.T(), row.Components[0].(discordgo.Button).Disabled)
	require.True(s.T(), row.Components[1].(discordgo.Button).Disabled)
	require.False(s.T(), row.Components[2].(discordgo.Button).Disabled)
	require.False(s.T(), row.Components[3].(discordgo.Button).Disabled)
}

func (s *PaginateSuite) TestSinglePageHasNoControls() {
	s.boundPager(1, time.Minute)
	sent := s.session.Calls[0].Arguments.Get(1).(*discordgo.MessageSend)
	require.Empty(s.T(), sent.Components)
	require.Equal(s.T(), "Page 1/1", sent.Embeds[0].Footer.Text)
}

func (s *PaginateSuite) TestProgrammaticNavigation() {
	pager := s.boundPager(3, time.Minute)
	s.session.On("ChannelMessageEditComplex", mock.Anything, mock.Anything).
		Return(&discordgo.Message{ID: "msg-1", ChannelID: "ch-1"}, nil)

	require.NoError(s.T(), pager.Next())
	require.NoError(s.T(), pager.Next())
	require.NoError(s.T(), pager.Previous())
	require.Equal(s.T(), 1, pager.CurrentIndex())

	require.Equal(s.T(), "Page 2/3", s.editedFooter(0))
	require.Equal(s.T(), "Page 3/3", s.editedFooter(1))
	require.Equal(s.T(), "Page 2/3", s.editedFooter(2))
}

func (s *PaginateSuite) TestFirstAndLastJump() {
	pager := s.boundPager(4, time.Minute)
	s.session.On("ChannelMessageEditComplex", mock.Anything, mock.Anything).
		Return(&discordgo.Message{ID: "msg-1", ChannelID: "ch-1"}, nil)

	require.NoError(s.T(), pager.Last())
	require.Equal(s.T(), 3, pager.CurrentIndex())
	require.NoError(s.T(), pager.First())
	require.Equal(s.T(), 0, pager.CurrentIndex())
}

func (s *PaginateSuite) TestBoundaryNavigationIsNoOp() {
	pager := s.boundPager(3, time.Minute)

	// At the first page, going back succeeds without touching the message.
	require.NoError(s.T(), pager.Previous())
	require.NoError(s.T(), pager.First())
	require.Equal(s.T(), 0, pager.CurrentIndex())
	s.session.AssertNotCalled(s.T(), "ChannelMessageEditComplex", mock.Anything, mock.Anything)
}

func (s *PaginateSuite) TestNavigationAfterExpiryFails() {
	pager := s.boundPager(3, time.Minute)
	s.session.On("ChannelMessageEditComplex", mock.Anything, mock.Anything).
		Return(&discordgo.Message{ID: "msg-1", ChannelID: "ch-1"}, nil)

	pager.Close()
	require.Equal(s.T(), PaginatorExpired, pager.State())
	require.ErrorIs(s.T(), pager.Next(), ErrPaginatorExpired)
	require.ErrorIs(s.T(), pager.AddPage(Page{Description: "late"}), ErrPaginatorExpired)
}

func (s *PaginateSuite) TestCloseDisablesControls() {
	pager := s.boundPager(3, time.Minute)
	s.session.On("ChannelMessageEditComplex", mock.Anything, mock.Anything).
		Return(&discordgo.Message{ID: "msg-1", ChannelID: "ch-1"}, nil).Once()

	pager.Close()
	s.session.AssertExpectations(s.T())

	edit := s.session.Calls[1].Arguments.Get(0).(*discordgo.MessageEdit)
	row := (*edit.Components)[0].(discordgo.ActionsRow)
	for _, c := range row.Components {
		require.True(s.T(), c.(discordgo.Button).Disabled)
	}
	// Close is idempotent.
	pager.Close()
	require.Equal(s.T(), PaginatorExpired, pager.State())
}

func (s *PaginateSuite) TestTimeoutExpires() {
	s.session.On("ChannelMessageEditComplex", mock.Anything, mock.Anything).
		Return(&discordgo.Message{ID: "msg-1", ChannelID: "ch-1"}, nil)

	pager := s.boundPager(2, 20*time.Millisecond)
	require.Eventually(s.T(), func() bool {
		return pager.State() == PaginatorExpired
	}, time.Second, 5*time.Millisecond)
}

func (s *PaginateSuite) TestInteractionDefersExpiry() {
	s.session.On("ChannelMessageEditComplex", mock.Anything, mock.Anything).
		Return(&discordgo.Message{ID: "msg-1", ChannelID: "ch-1"}, nil)
	s.session.On("InteractionRespond", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	pager := s.boundPager(3, 150*time.Millisecond)

	// Keep pressing well past the original deadline; each press restarts
	// the idle countdown, so the controls must stay live throughout.
	deadline := time.Now().Add(400 * time.Millisecond)
	for time.Now().Before(deadline) {
		require.True(s.T(), pager.HandleInteraction(s.componentPress(pager, actionFirst)))
		require.Equal(s.T(), PaginatorBound, pager.State())
		time.Sleep(30 * time.Millisecond)
	}

	// Once the presses stop, the idle timeout runs down and expires it.
	require.Eventually(s.T(), func() bool {
		return pager.State() == PaginatorExpired
	}, time.Second, 10*time.Millisecond)
}

func (s *PaginateSuite) TestProgrammaticNavigationDefersExpiry() {
	s.session.On("ChannelMessageEditComplex", mock.Anything, mock.Anything).
		Return(&discordgo.Message{ID: "msg-1", ChannelID: "ch-1"}, nil)

	pager := s.boundPager(5, 150*time.Millisecond)

	deadline := time.Now().Add(400 * time.Millisecond)
	for time.Now().Before(deadline) {
		require.NoError(s.T(), pager.Next())
		require.Equal(s.T(), PaginatorBound, pager.State())
		time.Sleep(30 * time.Millisecond)
	}
}

func (s *PaginateSuite) TestHandleInteractionNavigates() {
	pager := s.boundPager(3, time.Minute)
	s.session.On("InteractionRespond", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	require.True(s.T(), pager.HandleInteraction(s.componentPress(pager, actionNext)))
	require.Equal(s.T(), 1, pager.CurrentIndex())
	s.session.AssertExpectations(s.T())

	resp := s.session.Calls[1].Arguments.Get(1).(*discordgo.InteractionResponse)
	require.Equal(s.T(), discordgo.InteractionResponseUpdateMessage, resp.Type)
	require.Equal(s.T(), "Page 2/3", resp.Data.Embeds[0].Footer.Text)
}

func (s *PaginateSuite) TestHandleInteractionBoundaryAcknowledges() {
	pager := s.boundPager(3, time.Minute)
	s.session.On("InteractionRespond", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	require.True(s.T(), pager.HandleInteraction(s.componentPress(pager, actionPrev)))
	require.Equal(s.T(), 0, pager.CurrentIndex())

	resp := s.session.Calls[1].Arguments.Get(1).(*discordgo.InteractionResponse)
	require.Equal(s.T(), discordgo.InteractionResponseDeferredMessageUpdate, resp.Type)
}

func (s *PaginateSuite) TestHandleInteractionStop() {
	pager := s.boundPager(3, time.Minute)
	s.session.On("InteractionRespond", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	s.session.On("ChannelMessageEditComplex", mock.Anything, mock.Anything).
		Return(&discordgo.Message{ID: "msg-1", ChannelID: "ch-1"}, nil).Once()

	require.True(s.T(), pager.HandleInteraction(s.componentPress(pager, actionStop)))
	require.Equal(s.T(), PaginatorExpired, pager.State())
	s.session.AssertExpectations(s.T())
}

func (s *PaginateSuite) TestHandleInteractionIgnoresForeignComponents() {
	pager := s.boundPager(3, time.Minute)

	foreign := &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionMessageComponent,
			Data: discordgo.MessageComponentInteractionData{
				ComponentType: discordgo.ButtonComponent,
				CustomID:      "pager:someone-else:next",
			},
		},
	}
	require.False(s.T(), pager.HandleInteraction(foreign))

	command := &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{Type: discordgo.InteractionApplicationCommand},
	}
	require.False(s.T(), pager.HandleInteraction(command))
	require.Equal(s.T(), 0, pager.CurrentIndex())
}

func (s *PaginateSuite) TestHandleInteractionAfterExpiryAcknowledges() {
	pager := s.boundPager(2, time.Minute)
	s.session.On("ChannelMessageEditComplex", mock.Anything, mock.Anything).
		Return(&discordgo.Message{ID: "msg-1", ChannelID: "ch-1"}, nil)
	s.session.On("InteractionRespond", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	pager.Close()
	require.True(s.T(), pager.HandleInteraction(s.componentPress(pager, actionNext)))
	require.Equal(s.T(), 0, pager.CurrentIndex())
}

func (s *PaginateSuite) TestAddPageWhileBoundRefreshes() {
	pager := s.boundPager(2, time.Minute)
	s.session.On("ChannelMessageEditComplex", mock.Anything, mock.Anything).
		Return(&discordgo.Message{ID: "msg-1", ChannelID: "ch-1"}, nil).Once()

	require.NoError(s.T(), pager.AddPage(Page{Description: "page 3"}))
	require.Equal(s.T(), 3, pager.PageCount())
	require.Equal(s.T(), "Page 1/3", s.editedFooter(0))
}

func (s *PaginateSuite) TestRemovePageClampsIndex() {
	pager := s.boundPager(3, time.Minute)
	s.session.On("ChannelMessageEditComplex", mock.Anything, mock.Anything).
		Return(&discordgo.Message{ID: "msg-1", ChannelID: "ch-1"}, nil)

	require.NoError(s.T(), pager.Last())
	require.Equal(s.T(), 2, pager.CurrentIndex())
	require.NoError(s.T(), pager.RemovePage(2))
	require.Equal(s.T(), 1, pager.CurrentIndex())
	require.Equal(s.T(), 2, pager.PageCount())
}

func (s *PaginateSuite) TestRemovePageValidation() {
	pager := s.boundPager(1, time.Minute)
	require.Error(s.T(), pager.RemovePage(0))
	require.Error(s.T(), pager.RemovePage(5))
	require.Error(s.T(), pager.RemovePage(-1))
}

func (s *PaginateSuite) TestPaginationRequiresPages() {
	ch := &discordgo.Channel{ID: "ch-1", Type: discordgo.ChannelTypeGuildText}
	_, err := New(s.session, ChannelOrigin(ch)).
		SetAuthor("Test Author", "", "").
		EnablePagination(time.Minute).
		Send(context.Background())

	var valErr *ValidationError
	require.ErrorAs(s.T(), err, &valErr)
}

func (s *PaginateSuite) TestPaginationExcludesEdit() {
	ch := &discordgo.Channel{ID: "ch-1", Type: discordgo.ChannelTypeGuildText}
	_, err := New(s.session, ChannelOrigin(ch)).
		SetAuthor("Test Author", "", "").
		EnablePagination(time.Minute).
		AddPage(Page{Description: "page 1"}).
		EditMessage(&discordgo.Message{ID: "msg-1", ChannelID: "ch-1"}).
		Send(context.Background())

	var valErr *ValidationError
	require.ErrorAs(s.T(), err, &valErr)
	require.Empty(s.T(), s.session.Calls)
}

func (s *PaginateSuite) TestPageConfigInheritance() {
	s.session.On("ChannelMessageSendComplex", "ch-1", mock.Anything, mock.Anything).
		Return(&discordgo.Message{ID: "msg-1", ChannelID: "ch-1"}, nil).Once()

	ch := &discordgo.Channel{ID: "ch-1", Type: discordgo.ChannelTypeGuildText}
	b := New(s.session, ChannelOrigin(ch)).
		SetAuthor("Test Author", "icon://a", "").
		SetTitle("Inherited Title").
		SetColor(0xABCDEF).
		EnablePagination(time.Minute).
		AddPage(Page{Description: "inherits everything"}).
		AddPage(Page{Title: "Own Title", Description: "overrides", Color: 0x123456})

	_, err := b.Send(context.Background())
	require.NoError(s.T(), err)

	sent := s.session.Calls[0].Arguments.Get(1).(*discordgo.MessageSend)
	first := sent.Embeds[0]
	require.Equal(s.T(), "Inherited Title", first.Title)
	require.Equal(s.T(), 0xABCDEF, first.Color)
	require.Equal(s.T(), "Test Author", first.Author.Name)

	second := b.Paginator().renderPage(1)
	require.Equal(s.T(), "Own Title", second.Title)
	require.Equal(s.T(), 0x123456, second.Color)
}

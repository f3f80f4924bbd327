package notify

import (
	"fmt"

	"github.com/yzeman/yzemanbot-mini-app/internal/model"
	"github.com/yzeman/yzemanbot-mini-app/pkg/logger"
	"go.uber.org/zap"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier delivers operational notifications through the bot chat.
// Failures are logged and swallowed; a lost message never fails the ledger
// write that triggered it.
type TelegramNotifier struct {
	bot         *tgbotapi.BotAPI
	adminChatID int64
}

func NewTelegramNotifier(bot *tgbotapi.BotAPI, adminChatID int64) *TelegramNotifier {
	return &TelegramNotifier{
		bot:         bot,
		adminChatID: adminChatID,
	}
}

func (n *TelegramNotifier) send(chatID int64, text string) {
	if chatID == 0 {
		return
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		logger.Logger().Warn("failed to send telegram notification",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}

func (n *TelegramNotifier) WithdrawalRequested(user *model.User, withdrawal *model.Withdrawal) {
	n.send(n.adminChatID, fmt.Sprintf(
		"Withdrawal request\nUser: %s (%d)\nAmount: $%s\nWallet: %s",
		user.Username, user.TelegramID, withdrawal.Amount.StringFixed(2), withdrawal.WalletAddress))

	n.send(user.TelegramID, fmt.Sprintf(
		"Your withdrawal request for $%s is pending review.",
		withdrawal.Amount.StringFixed(2)))
}

func (n *TelegramNotifier) WithdrawalReviewed(withdrawal *model.Withdrawal) {
	switch withdrawal.Status {
	case model.WithdrawalStatusPaid:
		n.send(withdrawal.UserTelegramID, fmt.Sprintf(
			"Your withdrawal of $%s has been paid out to %s.",
			withdrawal.Amount.StringFixed(2), withdrawal.WalletAddress))
	case model.WithdrawalStatusRejected:
		n.send(withdrawal.UserTelegramID, fmt.Sprintf(
			"Your withdrawal of $%s was rejected. The amount has been returned to your balance.",
			withdrawal.Amount.StringFixed(2)))
	}
}

func (n *TelegramNotifier) ReferralApplied(result *model.ReferralResult) {
	text := fmt.Sprintf("You brought in a new referral! +%d points, %d referrals total.",
		result.RewardPoints, result.ReferrerReferrals)
	if result.TierChanged {
		text += fmt.Sprintf("\nYou reached the %s tier.", result.ReferrerTier)
	}
	n.send(result.ReferrerTelegramID, text)
}

func (n *TelegramNotifier) UserMessage(user *model.User, text string) {
	n.send(n.adminChatID, fmt.Sprintf(
		"Message from %s (%d):\n%s",
		user.Username, user.TelegramID, text))
}

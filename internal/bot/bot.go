package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yzeman/yzemanbot-mini-app/internal/model"
	"github.com/yzeman/yzemanbot-mini-app/internal/service"
	"github.com/yzeman/yzemanbot-mini-app/pkg/logger"
	"go.uber.org/zap"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot answers the chat commands that exist outside the mini app: onboarding
// with an optional referral payload, and quick balance and referral lookups.
type Bot struct {
	api       *tgbotapi.BotAPI
	users     service.UserServiceI
	referrals service.ReferralServiceI
	tiers     model.TierCatalog
	username  string
	webAppURL string
}

func New(api *tgbotapi.BotAPI, users service.UserServiceI, referrals service.ReferralServiceI, tiers model.TierCatalog, username, webAppURL string) *Bot {
	return &Bot{
		api:       api,
		users:     users,
		referrals: referrals,
		tiers:     tiers,
		username:  username,
		webAppURL: webAppURL,
	}
}

// Start consumes the update feed until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handleCommand(ctx, update.Message)

		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "earn":
		b.handleEarn(msg)
	case "refer":
		b.handleRefer(ctx, msg)
	case "balance":
		b.handleBalance(ctx, msg)
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	log := logger.Logger()

	from := msg.From
	if from == nil {
		return
	}

	now := time.Now().UTC()
	user, created, err := b.users.GetOrCreateUser(ctx, &model.User{
		TelegramID:       from.ID,
		Username:         from.UserName,
		FirstName:        from.FirstName,
		LastName:         from.LastName,
		RegistrationDate: now,
		AuthDate:         now,
	})
	if err != nil {
		log.Error("failed to register user on start", zap.Int64("telegram_id", from.ID), zap.Error(err))
		b.reply(msg.Chat.ID, "Something went wrong, please try again later.")
		return
	}

	code := strings.TrimPrefix(strings.TrimSpace(msg.CommandArguments()), "ref-")
	if created && code != "" {
		if _, err := b.referrals.ApplyReferralCode(ctx, user.TelegramID, code); err != nil {
			log.Info("referral code not applied on start",
				zap.Int64("telegram_id", user.TelegramID),
				zap.Error(err))
		}
	}

	text := fmt.Sprintf(
		"Welcome, %s!\n\nWatch ads, finish tasks and invite friends to earn points and real rewards.\n\n/earn shows all the ways to earn\n/refer gives you your invite link\n/balance shows what you have",
		from.FirstName)

	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	if b.webAppURL != "" {
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("Open the app", b.webAppURL),
			),
		)
	}
	if _, err := b.api.Send(out); err != nil {
		log.Warn("failed to send start reply", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
	}
}

func (b *Bot) handleEarn(msg *tgbotapi.Message) {
	var sb strings.Builder
	sb.WriteString("Ways to earn:\n")
	sb.WriteString("• Watch ads in the app, your tier sets the reward\n")
	sb.WriteString(fmt.Sprintf("• Premium ad of the day: %d points\n", model.PremiumAdBasePoints))
	sb.WriteString(fmt.Sprintf("• Visit the website: %d points daily\n", model.WebsiteVisitBasePoints))
	sb.WriteString(fmt.Sprintf("• Watch the video: %d points daily\n", model.YoutubeWatchBasePoints))
	sb.WriteString(fmt.Sprintf("• Follow our socials: $%s each, one time\n", model.SocialRewardDollars.StringFixed(0)))
	sb.WriteString("• Invite friends with /refer\n\nTiers:\n")

	for _, t := range b.tiers {
		sb.WriteString(fmt.Sprintf("%s: %d+ referrals, x%.1f point multiplier, %d points per referral\n",
			t.Name, t.MinReferrals, t.Multiplier, t.ReferralReward))
	}

	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) handleRefer(ctx context.Context, msg *tgbotapi.Message) {
	from := msg.From
	if from == nil {
		return
	}

	user, err := b.users.GetUserByTelegramID(ctx, from.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			b.reply(msg.Chat.ID, "Run /start first to create your account.")
			return
		}
		b.reply(msg.Chat.ID, "Something went wrong, please try again later.")
		return
	}

	link := fmt.Sprintf("https://t.me/%s?start=ref-%s", b.username, user.ReferralCode)
	b.reply(msg.Chat.ID, fmt.Sprintf(
		"Your invite link:\n%s\n\nFriends who join through it count towards your tier. You have %d referrals and are on the %s tier.",
		link, user.Referrals, user.Tier))
}

func (b *Bot) handleBalance(ctx context.Context, msg *tgbotapi.Message) {
	from := msg.From
	if from == nil {
		return
	}

	user, err := b.users.GetUserByTelegramID(ctx, from.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			b.reply(msg.Chat.ID, "Run /start first to create your account.")
			return
		}
		b.reply(msg.Chat.ID, "Something went wrong, please try again later.")
		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf(
		"Points: %d\nSocial rewards: $%s\nWithdrawable value: $%s\n\nWithdrawals open at $%s.",
		user.Points,
		user.SocialDollars.StringFixed(2),
		user.WithdrawableValue().StringFixed(2),
		model.MinWithdrawalAmount.StringFixed(0)))
}

func (b *Bot) reply(chatID int64, text string) {
	out := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(out); err != nil {
		logger.Logger().Warn("failed to send bot reply",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}

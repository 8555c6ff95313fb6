package handler

import (
	"workdays/internal/config"
	"workdays/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Sender отправляет сообщения в Telegram; *tgbotapi.BotAPI удовлетворяет интерфейсу
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Handler struct {
	sender            Sender
	attendanceService *service.AttendanceService
	config            *config.BotConfig
	logger            *logrus.Logger
}

func NewHandler(
	sender Sender,
	attendanceService *service.AttendanceService,
	cfg *config.BotConfig,
) *Handler {
	return &Handler{
		sender:            sender,
		attendanceService: attendanceService,
		config:            cfg,
		logger:            logrus.StandardLogger(),
	}
}

// HandleUpdates обрабатывает обновления последовательно, в одной горутине
func (h *Handler) HandleUpdates(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.Message == nil {
			continue
		}

		h.handleMessage(update.Message)
	}
}

func (h *Handler) handleMessage(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	h.logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"text":    message.Text,
	}).Info("Message received")

	if chatID != h.config.OwnerChatID {
		h.reply(chatID, "⛔ Бот доступен только владельцу.")
		return
	}

	if !message.IsCommand() {
		h.reply(chatID, "Я понимаю только команды. Список команд: /help")
		return
	}

	h.reply(chatID, h.handleCommand(message.Command(), message.CommandArguments()))
}

func (h *Handler) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.sender.Send(msg); err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

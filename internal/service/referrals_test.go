package service

import (
	"context"
	"testing"

	"github.com/yzeman/yzemanbot-mini-app/internal/model"
	"github.com/yzeman/yzemanbot-mini-app/internal/repository"
	"github.com/yzeman/yzemanbot-mini-app/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestReferralService_ApplyReferralCode(t *testing.T) {
	mockRepo := &mocks.MockReferralRepository{}
	mockNotifier := &mocks.MockNotificationSink{}
	mockEvents := &mocks.MockEventPublisher{}
	service := NewReferralService(mockRepo, mockNotifier, mockEvents, 250)

	referrer := &model.User{TelegramID: 10, Username: "referrer", ReferralCode: "AB12CD34"}

	tests := []struct {
		name            string
		telegramID      int64
		code            string
		setupMocks      func()
		expectedError   error
		checkAdditional func(t *testing.T, result *model.ReferralResult)
	}{
		{
			name:          "Blank code is rejected before the repository",
			telegramID:    20,
			code:          "   ",
			setupMocks:    func() {},
			expectedError: ErrInvalidCode,
		},
		{
			name:       "Unknown code",
			telegramID: 20,
			code:       "nope1234",
			setupMocks: func() {
				mockRepo.On("GetUserByReferralCode", mock.Anything, "NOPE1234").
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrInvalidCode,
		},
		{
			name:       "Own code is rejected before registering",
			telegramID: 10,
			code:       "AB12CD34",
			setupMocks: func() {
				mockRepo.On("GetUserByReferralCode", mock.Anything, "AB12CD34").
					Return(referrer, nil)
			},
			expectedError: ErrSelfReferral,
		},
		{
			name:       "Second referral for the same user",
			telegramID: 20,
			code:       "AB12CD34",
			setupMocks: func() {
				mockRepo.On("GetUserByReferralCode", mock.Anything, "AB12CD34").
					Return(referrer, nil)
				mockRepo.On("RegisterReferral", mock.Anything, int64(10), int64(20), "AB12CD34", int64(250)).
					Return(nil, repository.ErrAlreadyReferred)
			},
			expectedError: ErrAlreadyReferred,
		},
		{
			name:       "Referred user no longer exists",
			telegramID: 21,
			code:       "AB12CD34",
			setupMocks: func() {
				mockRepo.On("GetUserByReferralCode", mock.Anything, "AB12CD34").
					Return(referrer, nil)
				mockRepo.On("RegisterReferral", mock.Anything, int64(10), int64(21), "AB12CD34", int64(250)).
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrUserNotFound,
		},
		{
			name:       "Successful referral pays at the referrer's tier",
			telegramID: 22,
			code:       "ab12cd34",
			setupMocks: func() {
				result := &model.ReferralResult{
					ReferrerTelegramID: 10,
					ReferredTelegramID: 22,
					CodeUsed:           "AB12CD34",
					RewardPoints:       1000,
					JoinBonusPoints:    250,
					ReferrerTier:       model.TierFresher,
					ReferrerReferrals:  3,
				}
				mockRepo.On("GetUserByReferralCode", mock.Anything, "AB12CD34").
					Return(referrer, nil)
				mockRepo.On("RegisterReferral", mock.Anything, int64(10), int64(22), "AB12CD34", int64(250)).
					Return(result, nil)
				mockNotifier.On("ReferralApplied", result).Return()
				mockEvents.On("Publish", int64(10), mock.MatchedBy(func(event model.Event) bool {
					return event.Type == model.EventReferralApplied &&
						event.Payload["reward_points"] == int64(1000) &&
						event.Payload["referrals"] == 3
				})).Return()
			},
			checkAdditional: func(t *testing.T, result *model.ReferralResult) {
				assert.Equal(t, int64(1000), result.RewardPoints)
				assert.False(t, result.TierChanged)
			},
		},
		{
			name:       "Tier promotion publishes a second event",
			telegramID: 23,
			code:       "AB12CD34",
			setupMocks: func() {
				result := &model.ReferralResult{
					ReferrerTelegramID: 10,
					ReferredTelegramID: 23,
					CodeUsed:           "AB12CD34",
					RewardPoints:       1000,
					ReferrerTier:       model.TierBrute,
					TierChanged:        true,
					ReferrerReferrals:  50,
				}
				mockRepo.On("GetUserByReferralCode", mock.Anything, "AB12CD34").
					Return(referrer, nil)
				mockRepo.On("RegisterReferral", mock.Anything, int64(10), int64(23), "AB12CD34", int64(250)).
					Return(result, nil)
				mockNotifier.On("ReferralApplied", result).Return()
				mockEvents.On("Publish", int64(10), mock.MatchedBy(func(event model.Event) bool {
					return event.Type == model.EventReferralApplied
				})).Return()
				mockEvents.On("Publish", int64(10), mock.MatchedBy(func(event model.Event) bool {
					return event.Type == model.EventTierUp &&
						event.Payload["tier"] == string(model.TierBrute)
				})).Return()
			},
			checkAdditional: func(t *testing.T, result *model.ReferralResult) {
				assert.True(t, result.TierChanged)
				assert.Equal(t, model.TierBrute, result.ReferrerTier)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo.ExpectedCalls = nil
			mockRepo.Calls = nil
			mockNotifier.ExpectedCalls = nil
			mockNotifier.Calls = nil
			mockEvents.ExpectedCalls = nil
			mockEvents.Calls = nil

			tt.setupMocks()

			result, err := service.ApplyReferralCode(context.Background(), tt.telegramID, tt.code)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, result)
			}

			if tt.checkAdditional != nil {
				tt.checkAdditional(t, result)
			}

			mockRepo.AssertExpectations(t)
			mockNotifier.AssertExpectations(t)
			mockEvents.AssertExpectations(t)
		})
	}
}

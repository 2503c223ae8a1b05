// Package events carries change notifications from the engine to listeners.
package events

// Channel groups related events. Listeners subscribe per channel.
type Channel string

const (
	ChannelAccount     Channel = "ACCOUNT"
	ChannelBudget      Channel = "BUDGET"
	ChannelCommodity   Channel = "COMMODITY"
	ChannelConfig      Channel = "CONFIG"
	ChannelReminder    Channel = "REMINDER"
	ChannelSystem      Channel = "SYSTEM"
	ChannelTag         Channel = "TAG"
	ChannelTransaction Channel = "TRANSACTION"
	ChannelTrash       Channel = "TRASH"
)

// Channels lists every channel.
func Channels() []Channel {
	return []Channel{
		ChannelAccount, ChannelBudget, ChannelCommodity, ChannelConfig, ChannelReminder,
		ChannelSystem, ChannelTag, ChannelTransaction, ChannelTrash,
	}
}

// Event names what happened. Failed variants end in _FAILED.
type Event string

const (
	AccountAdd                    Event = "ACCOUNT_ADD"
	AccountAddFailed              Event = "ACCOUNT_ADD_FAILED"
	AccountModify                 Event = "ACCOUNT_MODIFY"
	AccountModifyFailed           Event = "ACCOUNT_MODIFY_FAILED"
	AccountRemove                 Event = "ACCOUNT_REMOVE"
	AccountRemoveFailed           Event = "ACCOUNT_REMOVE_FAILED"
	AccountSecurityAdd            Event = "ACCOUNT_SECURITY_ADD"
	AccountSecurityAddFailed      Event = "ACCOUNT_SECURITY_ADD_FAILED"
	AccountSecurityRemove         Event = "ACCOUNT_SECURITY_REMOVE"
	AccountSecurityRemoveFailed   Event = "ACCOUNT_SECURITY_REMOVE_FAILED"
	AccountVisibilityChange       Event = "ACCOUNT_VISIBILITY_CHANGE"
	AccountVisibilityChangeFailed Event = "ACCOUNT_VISIBILITY_CHANGE_FAILED"
	BudgetAdd                     Event = "BUDGET_ADD"
	BudgetAddFailed               Event = "BUDGET_ADD_FAILED"
	BudgetUpdate                  Event = "BUDGET_UPDATE"
	BudgetUpdateFailed            Event = "BUDGET_UPDATE_FAILED"
	BudgetGoalUpdate              Event = "BUDGET_GOAL_UPDATE"
	BudgetGoalUpdateFailed        Event = "BUDGET_GOAL_UPDATE_FAILED"
	BudgetRemove                  Event = "BUDGET_REMOVE"
	BudgetRemoveFailed            Event = "BUDGET_REMOVE_FAILED"
	CommodityHistoryAdd           Event = "COMMODITY_HISTORY_ADD"
	CommodityHistoryAddFailed     Event = "COMMODITY_HISTORY_ADD_FAILED"
	CommodityHistoryRemove        Event = "COMMODITY_HISTORY_REMOVE"
	CommodityHistoryRemoveFailed  Event = "COMMODITY_HISTORY_REMOVE_FAILED"
	ConfigModify                  Event = "CONFIG_MODIFY"
	ConfigModifyFailed            Event = "CONFIG_MODIFY_FAILED"
	CurrencyAdd                   Event = "CURRENCY_ADD"
	CurrencyAddFailed             Event = "CURRENCY_ADD_FAILED"
	CurrencyModify                Event = "CURRENCY_MODIFY"
	CurrencyModifyFailed          Event = "CURRENCY_MODIFY_FAILED"
	CurrencyRemove                Event = "CURRENCY_REMOVE"
	CurrencyRemoveFailed          Event = "CURRENCY_REMOVE_FAILED"
	ExchangeRateAdd               Event = "EXCHANGE_RATE_ADD"
	ExchangeRateAddFailed         Event = "EXCHANGE_RATE_ADD_FAILED"
	ExchangeRateRemove            Event = "EXCHANGE_RATE_REMOVE"
	ExchangeRateRemoveFailed      Event = "EXCHANGE_RATE_REMOVE_FAILED"
	ExchangeRateUpdateStarted     Event = "EXCHANGE_RATE_UPDATE_STARTED"
	ExchangeRateUpdateFinished    Event = "EXCHANGE_RATE_UPDATE_FINISHED"
	ExchangeRateUpdateFailed      Event = "EXCHANGE_RATE_UPDATE_FAILED"
	SecurityAdd                   Event = "SECURITY_ADD"
	SecurityAddFailed             Event = "SECURITY_ADD_FAILED"
	SecurityModify                Event = "SECURITY_MODIFY"
	SecurityModifyFailed          Event = "SECURITY_MODIFY_FAILED"
	SecurityRemove                Event = "SECURITY_REMOVE"
	SecurityRemoveFailed          Event = "SECURITY_REMOVE_FAILED"
	SecurityHistoryAdd            Event = "SECURITY_HISTORY_ADD"
	SecurityHistoryRemove         Event = "SECURITY_HISTORY_REMOVE"
	SecurityHistoryEventAdd       Event = "SECURITY_HISTORY_EVENT_ADD"
	SecurityHistoryEventRemove    Event = "SECURITY_HISTORY_EVENT_REMOVE"
	SecurityHistoryUpdateStarted  Event = "SECURITY_HISTORY_UPDATE_STARTED"
	SecurityHistoryUpdateFinished Event = "SECURITY_HISTORY_UPDATE_FINISHED"
	SecurityHistoryUpdateFailed   Event = "SECURITY_HISTORY_UPDATE_FAILED"
	ReminderAdd                   Event = "REMINDER_ADD"
	ReminderAddFailed             Event = "REMINDER_ADD_FAILED"
	ReminderUpdate                Event = "REMINDER_UPDATE"
	ReminderUpdateFailed          Event = "REMINDER_UPDATE_FAILED"
	ReminderRemove                Event = "REMINDER_REMOVE"
	ReminderRemoveFailed          Event = "REMINDER_REMOVE_FAILED"
	TagAdd                        Event = "TAG_ADD"
	TagAddFailed                  Event = "TAG_ADD_FAILED"
	TagModify                     Event = "TAG_MODIFY"
	TagModifyFailed               Event = "TAG_MODIFY_FAILED"
	TagRemove                     Event = "TAG_REMOVE"
	TagRemoveFailed               Event = "TAG_REMOVE_FAILED"
	TransactionAdd                Event = "TRANSACTION_ADD"
	TransactionAddFailed          Event = "TRANSACTION_ADD_FAILED"
	TransactionRemove             Event = "TRANSACTION_REMOVE"
	TransactionRemoveFailed       Event = "TRANSACTION_REMOVE_FAILED"
	BackgroundProcessStarted      Event = "BACKGROUND_PROCESS_STARTED"
	BackgroundProcessStopped      Event = "BACKGROUND_PROCESS_STOPPED"
	FileLoadSuccess               Event = "FILE_LOAD_SUCCESS"
	FileNewSuccess                Event = "FILE_NEW_SUCCESS"
	FileClosing                   Event = "FILE_CLOSING"
	TrashEmptyStarted             Event = "TRASH_EMPTY_STARTED"
	TrashEmptyStopped             Event = "TRASH_EMPTY_STOPPED"
)

// Failed reports whether e is a failure notification.
func (e Event) Failed() bool {
	n := len(e)
	return n > 7 && e[n-7:] == "_FAILED"
}

// Property keys a message payload.
type Property string

const (
	PropAccount      Property = "ACCOUNT"
	PropBudget       Property = "BUDGET"
	PropCommodity    Property = "COMMODITY"
	PropConfig       Property = "CONFIG"
	PropExchangeRate Property = "EXCHANGE_RATE"
	PropReminder     Property = "REMINDER"
	PropTag          Property = "TAG"
	PropTransaction  Property = "TRANSACTION"
	PropMessage      Property = "MESSAGE"
)

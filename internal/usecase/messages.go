package usecase

import (
	"fmt"

	"wallet-agent/internal/domain"
)

const (
	msgProcessing      = "💫 Processing your transaction..."
	msgInvalidAmount   = "❌ Invalid amount specified."
	msgRephrase        = "🤔 Hmm... I didn't quite get that. Could you rephrase?"
	msgChatUnavailable = "Oops! Something went wrong with the AI service."

	topUpURL      = "https://zapbase-imara1.vercel.app/"
	basescanTxURL = "https://sepolia.basescan.org/tx/"
)

// confirmationMessage renders the HTML confirmation prompt. The reply must be
// a literal "yes" to proceed.
func confirmationMessage(ti domain.TransferIntent, voiceOriginated bool) string {
	voiceIndicator := ""
	if voiceOriginated {
		voiceIndicator = "🎤 "
	}
	return fmt.Sprintf(
		"%s💰 <b>Transfer Confirmation</b>\n\n"+
			"💵 Amount: <b>%s %s</b>\n"+
			"📧 To: <b>%s</b>\n\n"+
			"❓ Confirm this transfer?\n"+
			"Reply with <b>'yes'</b> to proceed",
		voiceIndicator, ti.Amount, ti.Token, ti.Recipient,
	)
}

// outcomeMessage renders the user-facing result of a dispatch. Each kind gets
// distinct remediation text: top up funds, retry later, or celebrate.
func outcomeMessage(out domain.DispatchOutcome, ti domain.TransferIntent) string {
	switch out.Kind {
	case domain.OutcomeSuccess:
		return fmt.Sprintf(
			"✅ Transfer succeeded!\n\n🔗 Transaction: %s%s\n\n💰 Sent: %s %s\n📧 To: %s",
			basescanTxURL, out.Reference, ti.Amount, ti.Token, ti.Recipient,
		)
	case domain.OutcomeInsufficientFunds:
		return "❌ Transfer failed due to insufficient funds.\n\n💳 Top up your wallet here: " + topUpURL
	case domain.OutcomeRemoteFailure:
		return "❌ Transaction failed: " + out.Detail
	default:
		return "❌ Failed to reach transaction server: " + out.Detail
	}
}

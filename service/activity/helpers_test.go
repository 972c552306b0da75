package activity

import "time"

func strPtr(s string) *string { return &s }

func tsPtr(t time.Time) *UnixSeconds {
	u := UnixSeconds(t.Unix())
	return &u
}

func amountPtr(a TokenAmount) *TokenAmount { return &a }

func transfer(from, to string, amount float64, token string) RawTransfer {
	return RawTransfer{
		TokenName:       strPtr(token),
		Mint:            strPtr("mint-" + token),
		FromUserAccount: strPtr(from),
		ToUserAccount:   strPtr(to),
		TokenAmount:     amountPtr(NumberAmount(amount)),
	}
}

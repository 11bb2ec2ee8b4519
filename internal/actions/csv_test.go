package actions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const noticesSample = `SYMBOL,COMPANY NAME,SERIES,FACE VALUE,PURPOSE,EX-DATE,RECORD DATE
RELIANCE,Reliance Industries Limited,EQ,10,DIVIDEND - RS 10 PER SHARE,15-Aug-2024,16-Aug-2024
WIPRO,Wipro Limited,EQ,2,"FACE VALUE SPLIT 10:2",20-Dec-2023,21-Dec-2023
`

func TestReadNotices(t *testing.T) {
	notices, recErrs := ReadNotices(strings.NewReader(noticesSample))
	require.Empty(t, recErrs)
	require.Len(t, notices, 2)

	assert.Equal(t, "RELIANCE", notices[0].Symbol)
	assert.Equal(t, "EQ", notices[0].Series)
	assert.Equal(t, "15-Aug-2024", notices[0].ExDateText)
	assert.Equal(t, "DIVIDEND - RS 10 PER SHARE", notices[0].PurposeText)

	// Quoted purposes survive intact.
	assert.Equal(t, "FACE VALUE SPLIT 10:2", notices[1].PurposeText)
}

func TestReadNoticesFeedsParseBatch(t *testing.T) {
	notices, _ := ReadNotices(strings.NewReader(noticesSample))
	actions, recErrs := NewParser(nil).ParseBatch(notices)
	require.Empty(t, recErrs)
	require.Len(t, actions, 2)
}

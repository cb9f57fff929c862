package mail

import "fmt"

// resetTemplate renders the password reset email body. The link expiry in
// the copy matches the reset token lifetime.
func resetTemplate(resetURL string) string {
	return fmt.Sprintf(`
      <p>Hi,</p>
      <p>You requested a password reset. Click the button below to reset your password:</p>
      <p style="text-align:center;">
        <a href="%s"
           style="display:inline-block;padding:10px 20px;background-color:#4CAF50;color:#fff;
                  text-decoration:none;border-radius:5px;font-weight:bold;">
          Reset Password
        </a>
      </p>
      <p>This link will expire in <strong>15 minutes</strong>.</p>
      <p>If you did not request this, please ignore this email.</p>
      <p style="font-size:12px;color:#888;">Never share your password or reset link with anyone.</p>
      <p>Thanks,<br/>The Ledgerly Team</p>`, resetURL)
}

// changedTemplate renders the confirmation sent after a successful reset.
func changedTemplate() string {
	return `
      <p>Hi,</p>
      <p>Your password has been <strong>successfully reset</strong>.</p>
      <p>If you did <strong>not</strong> perform this action, please secure your account immediately by contacting our support team.</p>
      <p style="margin-top:20px;font-size:12px;color:#888;">
        For your security, never share your password with anyone.
      </p>
      <p>Thanks,<br/>The Ledgerly Team</p>`
}
